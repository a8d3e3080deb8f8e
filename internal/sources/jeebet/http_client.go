package jeebet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/validation"
)

// ErrSessionExpired is returned when the bookmaker no longer accepts the
// session cookie.
var ErrSessionExpired = fmt.Errorf("bookmaker session expired")

type HTTPClient struct {
	client       *http.Client
	baseURL      string
	forwardURL   string
	username     string
	sessionToken string

	resolvedMu  sync.RWMutex
	resolvedURL string
}

func NewHTTPClient(cfg *config.JeebetConfig) (*HTTPClient, error) {
	token := validation.SanitizeSessionToken(cfg.SessionCookie)
	if err := validation.ValidateBookmakerCredentials(cfg.Username, token); err != nil {
		return nil, err
	}

	c := &HTTPClient{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		forwardURL:   cfg.ForwardURL,
		username:     cfg.Username,
		sessionToken: token,
	}

	if cfg.MirrorURL != "" {
		resolved, err := resolveMirror(cfg.MirrorURL, cfg.Timeout)
		if err != nil {
			slog.Warn("Mirror resolution failed, using configured base URL",
				"mirror", cfg.MirrorURL, "base_url", cfg.BaseURL, "error", err)
		} else {
			c.resolvedMu.Lock()
			c.resolvedURL = resolved
			c.resolvedMu.Unlock()
		}
	}
	return c, nil
}

func (c *HTTPClient) resolvedBaseURL() string {
	c.resolvedMu.RLock()
	defer c.resolvedMu.RUnlock()
	if c.resolvedURL != "" {
		return strings.TrimSuffix(c.resolvedURL, "/")
	}
	return strings.TrimSuffix(c.baseURL, "/")
}

// FetchLiveFeed fetches the bookmaker's live cricket feed. A forward URL,
// when configured, wraps the target so the request goes out through the
// relay the scraping session was established on.
func (c *HTTPClient) FetchLiveFeed(ctx context.Context) ([]byte, error) {
	target := c.resolvedBaseURL() + "/api/v1/cricket/live"
	if c.forwardURL != "" {
		target = strings.TrimSuffix(c.forwardURL, "/") + "/" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", mirrorUserAgent)
	req.Header.Set("Cookie", "sessionid="+c.sessionToken)
	req.Header.Set("X-Username", c.username)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}
