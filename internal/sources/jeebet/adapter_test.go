package jeebet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/validation"
)

const liveFeedBody = `[
  {
    "id": "774401",
    "team_a": "England",
    "team_b": "South Africa",
    "score_a": "245/6",
    "score_b": "",
    "status": "LIVE",
    "format": "ODI",
    "venue": "Lord's, London",
    "overs": "42.3",
    "markets": [
      {"id": "w1", "type": "MATCH_WINNER", "label": "Match Odds", "back_odds": 1.55, "lay_odds": 1.58, "total_matched": 90000},
      {"id": "s1", "type": "SESSION_RUNS", "label": "Session Runs 40-45 Ov", "line_value": 38.5, "back_odds": 1.9, "lay_odds": 1.95},
      {"id": "x1", "type": "SESSION_RUNS", "label": "Longshot Session", "back_odds": 14.0, "lay_odds": 16.0},
      {"id": "dead", "type": "MATCH_WINNER", "label": "Suspended", "back_odds": 0}
    ]
  }
]`

func testConfig(baseURL string) *config.JeebetConfig {
	return &config.JeebetConfig{
		BaseURL:       baseURL,
		Username:      "analyst01",
		SessionCookie: "sessionid=abcdef123456; Path=/; HttpOnly",
		Timeout:       5 * time.Second,
	}
}

func TestAdapter_FetchLiveMatches(t *testing.T) {
	var gotCookie, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUser = r.Header.Get("X-Username")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(liveFeedBody))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	matches, err := a.FetchLiveMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchLiveMatches: %v", err)
	}

	if gotCookie != "sessionid=abcdef123456" {
		t.Errorf("cookie header = %q, cookie attributes leaked upstream", gotCookie)
	}
	if gotUser != "analyst01" {
		t.Errorf("username header = %q", gotUser)
	}

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	m := matches[0]
	if m.ID != "jb_774401" || m.Status != models.StatusLive || m.Format != models.FormatODI {
		t.Errorf("match header mismatch: %+v", m)
	}

	// The dead (unpriced) market is dropped.
	if len(m.MarketLines) != 3 {
		t.Fatalf("got %d lines, want 3", len(m.MarketLines))
	}
	for _, line := range m.MarketLines {
		if line.Source != models.SourceJeebet {
			t.Errorf("line %s source = %s, want JEEBET", line.ID, line.Source)
		}
	}

	if c := m.MarketLines[0].Classification; c != models.ClassApexStrat {
		t.Errorf("match winner class = %s", c)
	}
	if c := m.MarketLines[1].Classification; c != models.ClassTacticalPlay {
		t.Errorf("in-band session runs class = %s", c)
	}
	// 14.0 back odds is outside the sane band regardless of market type.
	if c := m.MarketLines[2].Classification; c != models.ClassVoidTrap {
		t.Errorf("longshot class = %s", c)
	}
}

func TestAdapter_SessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	_, err = a.FetchLiveMatches(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("got %v, want ErrSessionExpired", err)
	}
}

func TestNewAdapter_RejectsBadCredentials(t *testing.T) {
	cfg := testConfig("http://x")
	cfg.SessionCookie = "abc"
	if _, err := NewAdapter(cfg); !errors.Is(err, validation.ErrCredentialsMissing) {
		t.Errorf("short cookie: got %v, want ErrCredentialsMissing", err)
	}

	cfg = testConfig("http://x")
	cfg.Username = ""
	if _, err := NewAdapter(cfg); !errors.Is(err, validation.ErrCredentialsMissing) {
		t.Errorf("empty username: got %v, want ErrCredentialsMissing", err)
	}
}
