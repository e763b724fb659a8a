package core

import (
	"fmt"
	"strings"
)

// statusMachine is a stateless transition table. The zero value rejects everything.
type statusMachine[S ~string] struct {
	name           string
	edges          map[S][]S
	reasonRequired map[S]bool
}

// Validate checks the move from → to. Failures are validation errors wrapping
// ErrTerminalState, ErrInvalidTransition or ErrReasonRequired, in that order of precedence.
func (m statusMachine[S]) Validate(from, to S, reason string) error {
	allowed := m.edges[from]
	if len(allowed) == 0 {
		return &Error{
			Code:    CodeValidation,
			Message: fmt.Sprintf("%s status %s is terminal", m.name, from),
			Err:     ErrTerminalState,
		}
	}
	if !m.Allowed(from, to) {
		return &Error{
			Code:    CodeValidation,
			Message: fmt.Sprintf("%s cannot move from %s to %s", m.name, from, to),
			Err:     ErrInvalidTransition,
		}
	}
	if m.reasonRequired[to] && strings.TrimSpace(reason) == "" {
		return &Error{
			Code:    CodeValidation,
			Message: fmt.Sprintf("a reason is required to move %s to %s", m.name, to),
			Err:     ErrReasonRequired,
		}
	}
	return nil
}

// Allowed reports whether the edge exists, ignoring reason rules.
func (m statusMachine[S]) Allowed(from, to S) bool {
	for _, s := range m.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func (m statusMachine[S]) IsTerminal(s S) bool {
	return len(m.edges[s]) == 0
}

// Next returns the allowed targets from s.
func (m statusMachine[S]) Next(s S) []S {
	out := make([]S, len(m.edges[s]))
	copy(out, m.edges[s])
	return out
}

func (m statusMachine[S]) RequiresReason(to S) bool {
	return m.reasonRequired[to]
}
