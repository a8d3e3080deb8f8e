package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
)

func oracleConfig(baseURL string) *config.OracleConfig {
	return &config.OracleConfig{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		PulseModel:      "pulse-model",
		StructuralModel: "structural-model",
		Timeout:         5 * time.Second,
	}
}

func TestGeminiOracle_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "pulse-model") {
			t.Errorf("pulse call hit %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("api key header missing")
		}
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) == 0 || req.Tools[0].GoogleSearch == nil {
			t.Error("pulse request missing search tool")
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Pitch slowing, spinners on."}]},
			"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com/a","title":"Report"}}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiOracle(oracleConfig(srv.URL))
	pulse, err := g.Summarize(context.Background(), "situation?")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if pulse.Text != "Pitch slowing, spinners on." {
		t.Errorf("pulse text = %q", pulse.Text)
	}
	if len(pulse.Citations) != 1 || pulse.Citations[0].URL != "https://example.com/a" {
		t.Errorf("citations = %+v", pulse.Citations)
	}
}

func TestGeminiOracle_Structure(t *testing.T) {
	verdict := `{"context":{"venueBehavior":"slow","volatilityIndex":6,"pressureClassification":"CHASE","squadBalanceObservation":"thin tail"},"consensusLevel":2,"observations":[{"marketId":"ml1_2","type":"INFLATION","confidence":70,"reasoning":["over par","spin holding"],"expertsConcurred":["Quant","Trader"]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Error("structural request not schema-constrained")
		}
		if req.SystemInstruction == nil {
			t.Error("structural request missing system instruction")
		}
		var buf bytes.Buffer
		json.Compact(&buf, req.GenerationConfig.ResponseSchema)
		schema := buf.String()
		if !strings.Contains(schema, `"reasoning":{"type":"ARRAY"`) ||
			!strings.Contains(schema, `"expertsConcurred":{"type":"ARRAY"`) {
			t.Error("schema does not declare reasoning and expertsConcurred as string arrays")
		}
		resp := map[string]any{"candidates": []map[string]any{{"content": map[string]any{"parts": []map[string]any{{"text": verdict}}}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGeminiOracle(oracleConfig(srv.URL))
	got, err := g.Structure(context.Background(), "panel", "markets")
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if got.ConsensusLevel != 2 || len(got.Observations) != 1 {
		t.Errorf("verdict = %+v", got)
	}
	obs := got.Observations[0]
	if len(obs.Reasoning) != 2 || obs.Reasoning[0] != "over par" {
		t.Errorf("reasoning = %v", obs.Reasoning)
	}
	if len(obs.ExpertsConcurred) != 2 || obs.ExpertsConcurred[1] != "Trader" {
		t.Errorf("experts = %v", obs.ExpertsConcurred)
	}
	if got.Context.VolatilityIndex != 6 {
		t.Errorf("volatility = %v", got.Context.VolatilityIndex)
	}
}

func TestGeminiOracle_ErrorMapping(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	g := NewGeminiOracle(oracleConfig(srv.URL))
	if _, err := g.Summarize(context.Background(), "x"); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("429: got %v, want ErrQuotaExhausted", err)
	}

	status = http.StatusBadGateway
	if _, err := g.Summarize(context.Background(), "x"); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("502: got %v, want ErrOracleUnavailable", err)
	}
}

func TestGeminiOracle_NoAPIKey(t *testing.T) {
	cfg := oracleConfig("http://unused")
	cfg.APIKey = ""
	g := NewGeminiOracle(cfg)
	if _, err := g.Summarize(context.Background(), "x"); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("got %v, want ErrOracleUnavailable", err)
	}
}
