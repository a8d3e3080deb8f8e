package consensus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wicketwise/wicketwise/internal/alerts"
	"github.com/wicketwise/wicketwise/internal/pkg/cache"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// Result is one completed analysis round for a match.
type Result struct {
	MatchID        string                   `json:"match_id"`
	Pulse          *PulseResult             `json:"pulse"`
	Context        models.StructuralContext `json:"context"`
	ConsensusLevel int                      `json:"consensus_level"`
	PanelSize      int                      `json:"panel_size"`
	Dispatched     bool                     `json:"dispatched"`
	Edges          []models.Edge            `json:"edges"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Engine runs the two-phase consensus analysis. Phase one is a grounded
// pulse of the match situation, cached per match state; phase two asks a
// simulated expert panel for a structured verdict. An alert goes out only
// when enough of the panel concurs.
type Engine struct {
	oracle       ReasoningOracle
	notifier     alerts.Notifier
	minConsensus int
	panelSize    int
	now          func() time.Time

	pulseCache *cache.TTL[PulseResult]

	inflightMu sync.Mutex
	inflight   map[string]bool
}

func NewEngine(oracle ReasoningOracle, notifier alerts.Notifier, minConsensus, panelSize int, pulseTTL time.Duration) *Engine {
	now := time.Now
	return &Engine{
		oracle:       oracle,
		notifier:     notifier,
		minConsensus: minConsensus,
		panelSize:    panelSize,
		now:          now,
		pulseCache:   cache.New[PulseResult](pulseTTL, now),
		inflight:     make(map[string]bool),
	}
}

// Analyze runs one analysis round for a match. userContext is free-text
// knowledge from the operator (team news, ground intel) and flows into both
// oracle phases. Only one analysis per match may run at a time; concurrent
// calls get ErrAnalysisInFlight. A verdict the oracle cannot produce in
// valid form yields no signal and no error.
func (e *Engine) Analyze(ctx context.Context, match *models.Match, userContext string, rules []models.UserRule) (*Result, error) {
	e.inflightMu.Lock()
	if e.inflight[match.ID] {
		e.inflightMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAnalysisInFlight, match.ID)
	}
	e.inflight[match.ID] = true
	e.inflightMu.Unlock()
	defer func() {
		e.inflightMu.Lock()
		delete(e.inflight, match.ID)
		e.inflightMu.Unlock()
	}()

	pulse, err := e.pulse(ctx, match, userContext)
	if err != nil {
		return nil, err
	}

	active := models.ActiveRules(rules)
	verdict, err := e.oracle.Structure(ctx, buildSystemPrompt(e.panelSize, active), buildUserPrompt(match, pulse, userContext))
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) || errors.Is(err, ErrOracleUnavailable) {
			return nil, err
		}
		slog.Warn("Discarding malformed verdict", "match", match.ID, "error", err)
		return nil, nil
	}

	result := e.buildResult(match, pulse, verdict)
	if result.Dispatched {
		e.notifier.Notify(alerts.ConsensusAlert{
			MatchName:      match.Name(),
			ConsensusLevel: result.ConsensusLevel,
			PanelSize:      e.panelSize,
			Edges:          result.Edges,
		})
	}
	slog.Info("Analysis complete",
		"match", match.ID,
		"consensus", result.ConsensusLevel,
		"edges", len(result.Edges),
		"dispatched", result.Dispatched)
	return result, nil
}

// pulse returns the cached situation summary for the match's current state
// and operator context, fetching a fresh one when either moved or the cache
// expired.
func (e *Engine) pulse(ctx context.Context, match *models.Match, userContext string) (*PulseResult, error) {
	key := pulseKey(match, userContext)
	if cached, ok := e.pulseCache.Get(key); ok {
		slog.Debug("Pulse cache hit", "match", match.ID)
		return &cached, nil
	}

	pulse, err := e.oracle.Summarize(ctx, buildPulsePrompt(match, userContext))
	if err != nil {
		return nil, err
	}
	e.pulseCache.Set(key, *pulse)
	return pulse, nil
}

func (e *Engine) buildResult(match *models.Match, pulse *PulseResult, verdict *StructuralAnalysis) *Result {
	level := clampInt(verdict.ConsensusLevel, 0, e.panelSize)

	result := &Result{
		MatchID: match.ID,
		Pulse:   pulse,
		Context: models.StructuralContext{
			VenueBehavior:           verdict.Context.VenueBehavior,
			VolatilityIndex:         verdict.Context.VolatilityIndex,
			PressureClassification:  verdict.Context.PressureClassification,
			SquadBalanceObservation: verdict.Context.SquadBalanceObservation,
		},
		ConsensusLevel: level,
		PanelSize:      e.panelSize,
		CreatedAt:      e.now(),
	}

	for _, obs := range verdict.Observations {
		// Observations against markets the match doesn't carry are noise.
		if match.Line(obs.MarketID) == nil {
			slog.Debug("Dropping observation for unknown market", "match", match.ID, "market", obs.MarketID)
			continue
		}
		observation := ""
		if len(obs.Reasoning) > 0 {
			observation = obs.Reasoning[0]
		}
		result.Edges = append(result.Edges, models.Edge{
			MatchID:             match.ID,
			MarketID:            obs.MarketID,
			EdgeType:            models.EdgeType(obs.Type),
			Confidence:          clampFloat(obs.Confidence, 0, 100),
			Observation:         observation,
			StructuralReasoning: obs.Reasoning,
			ExpertsConcurred:    obs.ExpertsConcurred,
			TriggeredRules:      obs.TriggeredRules,
			CreatedAt:           result.CreatedAt,
		})
	}

	result.Dispatched = level >= e.minConsensus && len(result.Edges) > 0
	return result
}

// pulseKey scopes the cache to match state plus operator context, so a new
// piece of manual knowledge forces a fresh pulse.
func pulseKey(match *models.Match, userContext string) string {
	h := fnv.New32a()
	h.Write([]byte(userContext))
	return fmt.Sprintf("pulse:%s:%s:%s:%s:%x", match.ID, match.ScoreA, match.ScoreB, match.Overs, h.Sum32())
}

func buildPulsePrompt(match *models.Match, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current live cricket match: %s (%s) at %s.\n", match.Name(), match.Format, match.Venue)
	fmt.Fprintf(&b, "Score: %s %s", match.TeamA, match.ScoreA)
	if match.ScoreB != "" {
		fmt.Fprintf(&b, ", %s %s", match.TeamB, match.ScoreB)
	}
	fmt.Fprintf(&b, " after %s overs.\n", match.Overs)
	if userContext != "" {
		fmt.Fprintf(&b, "Operator notes: %s\n", userContext)
	}
	b.WriteString("Search for the latest reporting on this match and summarize pitch behavior, momentum, and any team news that would move betting markets. Be concise and factual.")
	return b.String()
}

func buildSystemPrompt(panelSize int, rules []models.UserRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You simulate a panel of %d independent cricket trading experts: ", panelSize)
	b.WriteString("a quantitative odds modeler (\"Quant\"), a professional exchange trader (\"Trader\"), and a former first-class cricketer reading game state (\"Pro\"). ")
	b.WriteString("Each expert independently evaluates the markets. For every finding, report reasoning as a list of short reasoning strings (strongest first) and expertsConcurred as the labels of the experts who back it, plus an overall consensusLevel (number of experts agreeing on the strongest finding). ")
	b.WriteString("Observation types: INFLATION (price too long), COMPRESSION (price too short), VARIANCE_PLAY (structural volatility mispriced). ")
	b.WriteString("Only report observations the game state genuinely supports.\n")

	if len(rules) > 0 {
		b.WriteString("\nThe user's active trading rules. When a finding satisfies one, include its id in triggeredRules:\n")
		for _, r := range rules {
			data, err := json.Marshal(r)
			if err != nil {
				continue
			}
			b.WriteString(string(data))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func buildUserPrompt(match *models.Match, pulse *PulseResult, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match: %s (%s), %s, overs %s, score %s / %s.\n\n", match.Name(), match.Format, match.Venue, match.Overs, match.ScoreA, match.ScoreB)
	b.WriteString("Situation pulse:\n")
	b.WriteString(pulse.Text)
	if userContext != "" {
		b.WriteString("\n\nOperator notes:\n")
		b.WriteString(userContext)
	}
	b.WriteString("\n\nMarkets:\n")
	for _, l := range match.MarketLines {
		fmt.Fprintf(&b, "- id=%s type=%s label=%q back=%.2f lay=%.2f matched=%.0f tier=%s", l.ID, l.Type, l.Label, l.BackOdds, l.LayOdds, l.TotalMatched, l.Classification)
		if l.InitialOdds > 0 {
			fmt.Fprintf(&b, " opened=%.2f", l.InitialOdds)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEvaluate each market for structural mispricing and return the panel verdict.")
	return b.String()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
