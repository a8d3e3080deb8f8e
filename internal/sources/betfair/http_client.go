package betfair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/validation"
)

// cricketEventTypeID is the exchange's event type id for cricket.
const cricketEventTypeID = "4"

// ErrCredentialsRejected is returned when the exchange refuses the session.
var ErrCredentialsRejected = fmt.Errorf("exchange rejected credentials")

type HTTPClient struct {
	client       *http.Client
	baseURL      string
	appKey       string
	sessionToken string
}

func NewHTTPClient(baseURL, appKey, sessionToken string, timeout time.Duration) (*HTTPClient, error) {
	token := validation.SanitizeSessionToken(sessionToken)
	if err := validation.ValidateExchangeCredentials(appKey, token); err != nil {
		return nil, err
	}
	return &HTTPClient{
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		appKey:       appKey,
		sessionToken: token,
	}, nil
}

func (c *HTTPClient) ListCricketEvents(ctx context.Context) ([]eventResult, error) {
	req := eventFilter{Filter: marketFilter{
		EventTypeIDs: []string{cricketEventTypeID},
		InPlayOnly:   true,
	}}
	var out []eventResult
	if err := c.postJSON(ctx, "/listEvents/", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListMarketCatalogue(ctx context.Context, eventID string, maxResults int) ([]marketCatalogue, error) {
	req := catalogueRequest{
		Filter:           marketFilter{EventIDs: []string{eventID}},
		MaxResults:       maxResults,
		MarketProjection: []string{"MARKET_DESCRIPTION", "RUNNER_DESCRIPTION", "EVENT"},
	}
	var out []marketCatalogue
	if err := c.postJSON(ctx, "/listMarketCatalogue/", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListMarketBook(ctx context.Context, marketIDs []string) ([]marketBook, error) {
	req := bookRequest{
		MarketIDs:       marketIDs,
		PriceProjection: priceProjection{PriceData: []string{"EX_BEST_OFFERS"}},
	}
	var out []marketBook
	if err := c.postJSON(ctx, "/listMarketBook/", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", c.sessionToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return ErrCredentialsRejected
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(b))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
