// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oplog implements the ordered operation log of an editing session.
// Insertion order is the application order, the z-order and the replay
// order; operations are never reordered or mutated in place.
package oplog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// ErrDuplicateID is returned when the ID generator yields an identifier
// already present in the log.
var ErrDuplicateID = errors.New("duplicate operation id")

// Log is an ordered sequence of operations. It is not safe for concurrent
// use; an editing session owns it from a single goroutine.
type Log struct {
	ops      []types.Operation
	seen     map[string]bool
	newID    func() string
	revision uint64
}

// Option configures a Log.
type Option func(*Log)

// WithIDFunc replaces the default UUID generator.
func WithIDFunc(fn func() string) Option {
	return func(l *Log) { l.newID = fn }
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		seen:  make(map[string]bool),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append validates the draft, assigns it an ID and stores a frozen copy.
// The stored operation is returned.
func (l *Log) Append(d types.Draft) (types.Operation, error) {
	if err := d.Validate(); err != nil {
		return types.Operation{}, fmt.Errorf("invalid operation: %w", err)
	}
	id := l.newID()
	if id == "" || l.seen[id] {
		return types.Operation{}, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	op := types.Operation{
		ID:       id,
		Page:     d.Page,
		Position: d.Position,
		Payload:  d.Payload,
	}
	if !op.HasPosition() {
		op.Position = types.Point{}
	}
	l.ops = append(l.ops, op)
	l.seen[id] = true
	l.revision++
	return op, nil
}

// RemoveByID deletes the operation with the given ID. It reports whether an
// entry was removed; an unknown ID is a no-op.
func (l *Log) RemoveByID(id string) bool {
	for i, op := range l.ops {
		if op.ID != id {
			continue
		}
		next := make([]types.Operation, 0, len(l.ops)-1)
		next = append(next, l.ops[:i]...)
		next = append(next, l.ops[i+1:]...)
		l.ops = next
		l.revision++
		return true
	}
	return false
}

// Clear empties the log. IDs handed out earlier stay reserved so they are
// never reused within the session.
func (l *Log) Clear() {
	if len(l.ops) == 0 {
		return
	}
	l.ops = nil
	l.revision++
}

// ByPage returns, in insertion order, the operations targeting page.
func (l *Log) ByPage(page int) []types.Operation {
	var out []types.Operation
	for _, op := range l.ops {
		if op.Page == page {
			out = append(out, op)
		}
	}
	return out
}

// Snapshot returns a copy of every operation in insertion order.
func (l *Log) Snapshot() []types.Operation {
	out := make([]types.Operation, len(l.ops))
	copy(out, l.ops)
	return out
}

// Get returns the operation with the given ID.
func (l *Log) Get(id string) (types.Operation, bool) {
	for _, op := range l.ops {
		if op.ID == id {
			return op, true
		}
	}
	return types.Operation{}, false
}

// Len returns the number of operations.
func (l *Log) Len() int { return len(l.ops) }

// Revision increases on every change to the log. Hosts compare it to decide
// whether the preview must be redrawn.
func (l *Log) Revision() uint64 { return l.revision }
