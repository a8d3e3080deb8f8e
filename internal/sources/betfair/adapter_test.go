package betfair

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Application") == "" || r.Header.Get("X-Authentication") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "listEvents"):
			json.NewEncoder(w).Encode([]eventResult{
				{Event: event{ID: "101", Name: "India v Australia T20", Venue: "Wankhede Stadium"}, MarketCount: 2},
			})
		case strings.Contains(r.URL.Path, "listMarketCatalogue"):
			json.NewEncoder(w).Encode([]marketCatalogue{
				{
					MarketID:    "1.100",
					MarketName:  "Match Odds",
					Description: marketDesc{MarketType: "MATCH_ODDS"},
				},
				{
					MarketID:    "1.101",
					MarketName:  "1st Innings Runs",
					Description: marketDesc{MarketType: "INNINGS_RUNS"},
				},
			})
		case strings.Contains(r.URL.Path, "listMarketBook"):
			json.NewEncoder(w).Encode([]marketBook{
				{
					MarketID:     "1.100",
					Status:       "OPEN",
					Inplay:       true,
					TotalMatched: 250000,
					Runners: []runnerBook{{
						SelectionID: 1,
						Status:      "ACTIVE",
						EX: exchangePrice{
							AvailableToBack: []priceSize{{Price: 1.85, Size: 5000}},
							AvailableToLay:  []priceSize{{Price: 1.87, Size: 4200}},
						},
					}},
				},
				{
					MarketID:     "1.101",
					Status:       "OPEN",
					TotalMatched: 12000,
					Runners: []runnerBook{{
						SelectionID: 2,
						Status:      "ACTIVE",
						EX: exchangePrice{
							AvailableToBack: []priceSize{{Price: 2.5, Size: 800}},
							AvailableToLay:  []priceSize{{Price: 2.56, Size: 650}},
						},
					}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAdapter_FetchLiveMatches(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "app-key", "session-token-1", 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	a := &Adapter{client: client}

	matches, err := a.FetchLiveMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchLiveMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	m := matches[0]
	if m.TeamA != "India" || m.TeamB != "Australia T20" {
		t.Errorf("teams = %q / %q", m.TeamA, m.TeamB)
	}
	if m.Format != models.FormatT20 {
		t.Errorf("format = %s, want T20", m.Format)
	}
	if m.Status != models.StatusLive {
		t.Errorf("status = %s, want LIVE", m.Status)
	}
	if len(m.MarketLines) != 2 {
		t.Fatalf("got %d market lines, want 2", len(m.MarketLines))
	}

	for _, line := range m.MarketLines {
		if line.Source != models.SourceBetfair {
			t.Errorf("line %s source = %s, want BETFAIR", line.ID, line.Source)
		}
	}

	winner := m.MarketLines[0]
	if winner.Type != models.MarketMatchWinner || winner.Classification != models.ClassApexStrat {
		t.Errorf("match odds line: type=%s class=%s", winner.Type, winner.Classification)
	}
	if winner.BackOdds != 1.85 || winner.LayOdds != 1.87 {
		t.Errorf("match odds prices: %v / %v", winner.BackOdds, winner.LayOdds)
	}

	runs := m.MarketLines[1]
	if runs.Type != models.MarketInningsRuns || runs.Classification != models.ClassTacticalPlay {
		t.Errorf("innings runs line: type=%s class=%s", runs.Type, runs.Classification)
	}
}

func TestAdapter_CredentialsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "app-key", "stale-token", 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	a := &Adapter{client: client}

	_, err = a.FetchLiveMatches(context.Background())
	if !errors.Is(err, ErrCredentialsRejected) {
		t.Errorf("got %v, want ErrCredentialsRejected", err)
	}
}

func TestNewHTTPClient_MissingCredentials(t *testing.T) {
	if _, err := NewHTTPClient("http://x", "", "token", time.Second); err == nil {
		t.Error("empty app key accepted")
	}
	if _, err := NewHTTPClient("http://x", "key", "", time.Second); err == nil {
		t.Error("empty session token accepted")
	}
}

func TestMapMarketType(t *testing.T) {
	tests := []struct {
		code, name string
		want       models.MarketType
	}{
		{"MATCH_ODDS", "Match Odds", models.MarketMatchWinner},
		{"INNINGS_RUNS", "1st Innings Runs", models.MarketInningsRuns},
		{"", "Powerplay Runs IND", models.MarketPowerplay},
		{"", "Afternoon Session Runs", models.MarketSessionRuns},
		{"", "Fall of Next Wicket", models.MarketWicketNext},
		{"SPECIAL", "Most Sixes", models.MarketType("SPECIAL")},
	}
	for _, tt := range tests {
		if got := mapMarketType(tt.code, tt.name); got != tt.want {
			t.Errorf("mapMarketType(%q, %q) = %s, want %s", tt.code, tt.name, got, tt.want)
		}
	}
}
