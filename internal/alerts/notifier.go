package alerts

import "github.com/wicketwise/wicketwise/internal/pkg/models"

// ConsensusAlert is one dispatched signal: the panel agreed on a match and
// these are the edges it found.
type ConsensusAlert struct {
	MatchName      string
	ConsensusLevel int
	PanelSize      int
	Edges          []models.Edge
}

// Notifier delivers consensus alerts to wherever the user watches.
type Notifier interface {
	Notify(alert ConsensusAlert)
	Stop()
}

// NoopNotifier drops alerts. Used when no alert channel is configured and
// in tests.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ConsensusAlert) {}
func (NoopNotifier) Stop()                 {}
