package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gcpanel/gcpanel-backend/config"
)

// PlanGrid pulls sheet/document records from PlanGrid's API-key API.
type PlanGrid struct {
	baseURL string
	apiKey  string
	client  *apiClient
}

func NewPlanGrid(cfg config.ConnectorsConfig, fc FetchConfig) *PlanGrid {
	return &PlanGrid{
		baseURL: cfg.PlanGridBaseURL,
		apiKey:  cfg.PlanGridAPIKey,
		client:  newAPIClient("plangrid", fc, nil),
	}
}

func (p *PlanGrid) Name() string  { return "plangrid" }
func (p *PlanGrid) Enabled() bool { return p.apiKey != "" }

func (p *PlanGrid) Fetch(ctx context.Context, since time.Time) ([]json.RawMessage, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)

	url := fmt.Sprintf("%s/projects?updated_after=%s",
		p.baseURL, since.UTC().Format(time.RFC3339))
	page, err := p.client.getJSON(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	return []json.RawMessage{page}, nil
}
