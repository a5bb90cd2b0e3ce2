package reconcile

import (
	"fmt"
	"log/slog"
)

// ImportState is a step of the per-import state machine.
type ImportState string

const (
	StateIdle                 ImportState = "idle"
	StateReading              ImportState = "reading"
	StateNormalizing          ImportState = "normalizing"
	StateMatching             ImportState = "matching"
	StateAwaitingConfirmation ImportState = "awaiting_confirmation"
	StateMerging              ImportState = "merging"
)

var transitions = map[ImportState][]ImportState{
	StateIdle:                 {StateReading},
	StateReading:              {StateNormalizing, StateIdle},
	StateNormalizing:          {StateMatching},
	StateMatching:             {StateAwaitingConfirmation, StateMerging},
	StateAwaitingConfirmation: {StateMerging, StateIdle},
	StateMerging:              {StateIdle},
}

// CanTransition reports whether from -> to is a legal step for the given source.
// Only the AI path may suspend for operator confirmation.
func CanTransition(source Source, from, to ImportState) bool {
	if to == StateAwaitingConfirmation && source != SourceAI {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// run tracks a single import action through its states.
type run struct {
	id     string
	source Source
	state  ImportState
	logger *slog.Logger
}

func newRun(id string, source Source, logger *slog.Logger) *run {
	return &run{id: id, source: source, state: StateIdle, logger: logger}
}

func resumeRun(p PendingImport, logger *slog.Logger) *run {
	return &run{id: p.ID, source: p.Source, state: p.State, logger: logger}
}

func (r *run) advance(to ImportState) error {
	if !CanTransition(r.source, r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	r.logger.Debug("import state",
		slog.String("import_id", r.id),
		slog.String("source", string(r.source)),
		slog.String("from", string(r.state)),
		slog.String("to", string(to)),
	)
	r.state = to
	return nil
}
