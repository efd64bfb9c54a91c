package opt

import (
	"fmt"
	"sort"

	"dronefeed/internal/model"
)

// Ledger records which targets have been credited during one solve. A fresh
// Ledger per solve is the only reset needed.
type Ledger struct {
	credited map[model.TargetID]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{credited: map[model.TargetID]struct{}{}}
}

// Credited reports whether id was already delivered to. A nil Ledger has
// credited nothing.
func (l *Ledger) Credited(id model.TargetID) bool {
	if l == nil {
		return false
	}
	_, ok := l.credited[id]
	return ok
}

// Credit marks id delivered. Crediting twice is an error.
func (l *Ledger) Credit(id model.TargetID) error {
	if _, ok := l.credited[id]; ok {
		return fmt.Errorf("target %d: %w", id, ErrAlreadyCredited)
	}
	l.credited[id] = struct{}{}
	return nil
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.credited)
}

// IDs returns the credited targets in ascending order.
func (l *Ledger) IDs() []model.TargetID {
	out := make([]model.TargetID, 0, l.Len())
	if l == nil {
		return out
	}
	for id := range l.credited {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
