package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gcpanel/gcpanel-backend/config"
)

// Fieldwire pulls task records from Fieldwire's API-token API.
type Fieldwire struct {
	baseURL string
	apiKey  string
	client  *apiClient
}

func NewFieldwire(cfg config.ConnectorsConfig, fc FetchConfig) *Fieldwire {
	return &Fieldwire{
		baseURL: cfg.FieldwireBaseURL,
		apiKey:  cfg.FieldwireAPIKey,
		client:  newAPIClient("fieldwire", fc, nil),
	}
}

func (f *Fieldwire) Name() string  { return "fieldwire" }
func (f *Fieldwire) Enabled() bool { return f.apiKey != "" }

func (f *Fieldwire) Fetch(ctx context.Context, since time.Time) ([]json.RawMessage, error) {
	header := http.Header{}
	header.Set("Fieldwire-Version", "2024-01-01")
	header.Set("Authorization", "Token api="+f.apiKey)

	url := fmt.Sprintf("%s/api/v3/account/projects?last_synced_at=%s",
		f.baseURL, since.UTC().Format(time.RFC3339))
	page, err := f.client.getJSON(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return []json.RawMessage{page}, nil
}
