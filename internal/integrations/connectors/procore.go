package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/gcpanel/gcpanel-backend/config"
)

// Procore pulls RFIs and project records over Procore's OAuth2 API.
type Procore struct {
	baseURL string
	enabled bool
	client  *apiClient
}

func NewProcore(cfg config.ConnectorsConfig, fc FetchConfig) *Procore {
	enabled := cfg.ProcoreClientID != "" && cfg.ProcoreClientSecret != ""

	var httpClient *http.Client
	if enabled {
		cc := clientcredentials.Config{
			ClientID:     cfg.ProcoreClientID,
			ClientSecret: cfg.ProcoreClientSecret,
			TokenURL:     cfg.ProcoreBaseURL + "/oauth/token",
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = fc.Timeout
	}

	return &Procore{
		baseURL: cfg.ProcoreBaseURL,
		enabled: enabled,
		client:  newAPIClient("procore", fc, httpClient),
	}
}

func (p *Procore) Name() string  { return "procore" }
func (p *Procore) Enabled() bool { return p.enabled }

func (p *Procore) Fetch(ctx context.Context, since time.Time) ([]json.RawMessage, error) {
	var pages []json.RawMessage

	for _, resource := range []string{"rfis", "submittals"} {
		url := fmt.Sprintf("%s/rest/v1.0/%s?updated_at[gte]=%s",
			p.baseURL, resource, since.UTC().Format(time.RFC3339))
		page, err := p.client.getJSON(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", resource, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}
