package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// FeedClient fetches the feed-service's /matches snapshot.
type FeedClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewFeedClient(baseURL string) *FeedClient {
	if baseURL == "" {
		return nil
	}
	return &FeedClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type matchesResponse struct {
	Matches []models.Match `json:"matches"`
	Meta    struct {
		Count       int       `json:"count"`
		LastUpdated time.Time `json:"last_updated"`
	} `json:"meta"`
}

// GetMatches fetches the current match snapshot.
func (c *FeedClient) GetMatches(ctx context.Context) ([]models.Match, error) {
	if c == nil {
		return nil, fmt.Errorf("feed client is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/matches", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var out matchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Matches, nil
}
