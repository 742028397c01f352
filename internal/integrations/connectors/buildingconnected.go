package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gcpanel/gcpanel-backend/config"
)

// BuildingConnected pulls bid/opportunity records.
type BuildingConnected struct {
	baseURL string
	apiKey  string
	client  *apiClient
}

func NewBuildingConnected(cfg config.ConnectorsConfig, fc FetchConfig) *BuildingConnected {
	return &BuildingConnected{
		baseURL: cfg.BuildingConnBaseURL,
		apiKey:  cfg.BuildingConnAPIKey,
		client:  newAPIClient("buildingconnected", fc, nil),
	}
}

func (b *BuildingConnected) Name() string  { return "buildingconnected" }
func (b *BuildingConnected) Enabled() bool { return b.apiKey != "" }

func (b *BuildingConnected) Fetch(ctx context.Context, since time.Time) ([]json.RawMessage, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+b.apiKey)

	url := fmt.Sprintf("%s/opportunities?modifiedAfter=%s",
		b.baseURL, since.UTC().Format(time.RFC3339))
	page, err := b.client.getJSON(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("fetch opportunities: %w", err)
	}
	return []json.RawMessage{page}, nil
}
