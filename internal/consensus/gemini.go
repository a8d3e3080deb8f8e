package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
)

// GeminiOracle talks to the generative language REST API. The pulse phase
// runs against the stronger model with search grounding enabled; the
// structural phase runs schema-constrained JSON against the faster model.
type GeminiOracle struct {
	client          *http.Client
	baseURL         string
	apiKey          string
	pulseModel      string
	structuralModel string
}

func NewGeminiOracle(cfg *config.OracleConfig) *GeminiOracle {
	return &GeminiOracle{
		client:          &http.Client{Timeout: cfg.Timeout},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		pulseModel:      cfg.PulseModel,
		structuralModel: cfg.StructuralModel,
	}
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// structuralSchema constrains the second phase to the panel verdict shape.
var structuralSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "context": {
      "type": "OBJECT",
      "properties": {
        "venueBehavior": {"type": "STRING"},
        "volatilityIndex": {"type": "NUMBER"},
        "pressureClassification": {"type": "STRING"},
        "squadBalanceObservation": {"type": "STRING"}
      },
      "required": ["venueBehavior", "volatilityIndex", "pressureClassification", "squadBalanceObservation"]
    },
    "consensusLevel": {"type": "INTEGER"},
    "observations": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "marketId": {"type": "STRING"},
          "type": {"type": "STRING", "enum": ["INFLATION", "COMPRESSION", "VARIANCE_PLAY"]},
          "confidence": {"type": "NUMBER"},
          "reasoning": {"type": "ARRAY", "items": {"type": "STRING"}},
          "expertsConcurred": {"type": "ARRAY", "items": {"type": "STRING"}},
          "triggeredRules": {"type": "ARRAY", "items": {"type": "STRING"}}
        },
        "required": ["marketId", "type", "confidence", "reasoning", "expertsConcurred"]
      }
    }
  },
  "required": ["context", "consensusLevel", "observations"]
}`)

func (g *GeminiOracle) Summarize(ctx context.Context, prompt string) (*PulseResult, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	}
	resp, err := g.generate(ctx, g.pulseModel, req)
	if err != nil {
		return nil, err
	}

	out := &PulseResult{Text: firstText(resp)}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, c := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if c.Web.URI == "" {
				continue
			}
			out.Citations = append(out.Citations, Citation{Title: c.Web.Title, URL: c.Web.URI})
		}
	}
	return out, nil
}

func (g *GeminiOracle) Structure(ctx context.Context, systemPrompt, userPrompt string) (*StructuralAnalysis, error) {
	temp := 0.2
	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   structuralSchema,
			Temperature:      &temp,
		},
	}
	resp, err := g.generate(ctx, g.structuralModel, req)
	if err != nil {
		return nil, err
	}

	raw := firstText(resp)
	var analysis StructuralAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse structural verdict: %w", err)
	}
	return &analysis, nil
}

func (g *GeminiOracle) generate(ctx context.Context, model string, payload generateRequest) (*generateResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrOracleUnavailable)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrQuotaExhausted
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: upstream status %d", ErrOracleUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(b))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

func firstText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

var _ ReasoningOracle = (*GeminiOracle)(nil)
