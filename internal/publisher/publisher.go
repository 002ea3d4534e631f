// SPDX-License-Identifier: GPL-3.0-only

// Package publisher maps controller state fields to data-layer nodes and
// writes changed values to the store.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hwbridge/gamepad-bridge/internal/report"
	"github.com/hwbridge/gamepad-bridge/internal/store"
)

const (
	// DefaultRoot is the address root all node paths hang under.
	DefaultRoot = "devices/gamepad"

	// connectedNode signals whether the gamepad is currently attached.
	connectedNode = "connected"

	// fullDataNode carries a one-line summary of the whole state,
	// rewritten on every cycle that changed at least one field.
	fullDataNode = "full-data"

	// fullDataInitial is the full-data payload before the first report.
	fullDataInitial = "no data available"
)

// Publisher writes controller state into the data layer. The field-to-node
// mapping is the static report.Field table; each field's node path is the
// address root joined with the field identifier.
type Publisher struct {
	store store.Store
	root  string
}

// New creates a Publisher rooted at the given address prefix. An empty root
// falls back to DefaultRoot.
func New(s store.Store, root string) *Publisher {
	if root == "" {
		root = DefaultRoot
	}
	return &Publisher{store: s, root: root}
}

// Root returns the address root the publisher writes under.
func (p *Publisher) Root() string {
	return p.root
}

// nodePath resolves a field to its absolute node path.
func (p *Publisher) nodePath(f report.Field) string {
	return p.root + "/" + string(f)
}

// Register creates every node with its idle value. It is called once at
// startup, before the first publish cycle.
func (p *Publisher) Register(ctx context.Context) error {
	idle := report.State{}
	for _, f := range report.Fields() {
		path := p.nodePath(f)
		if err := p.store.RegisterNode(ctx, path, fieldValue(idle, f)); err != nil {
			return fmt.Errorf("failed to register node %s: %w", path, err)
		}
	}

	if err := p.store.RegisterNode(ctx, p.root+"/"+connectedNode, store.Bool(false)); err != nil {
		return fmt.Errorf("failed to register node %s: %w", connectedNode, err)
	}
	if err := p.store.RegisterNode(ctx, p.root+"/"+fullDataNode, store.String(fullDataInitial)); err != nil {
		return fmt.Errorf("failed to register node %s: %w", fullDataNode, err)
	}

	log.Debug().Str("root", p.root).Int("nodes", len(report.Fields())+2).Msg("Nodes registered")
	return nil
}

// Publish writes the changed fields of state to their nodes. A failing node
// does not stop the remaining nodes from being published; all per-node
// failures are collected into a single aggregate error for the cycle.
func (p *Publisher) Publish(ctx context.Context, changed []report.Field, state report.State) error {
	if len(changed) == 0 {
		return nil
	}

	var errs []error
	for _, f := range changed {
		path := p.nodePath(f)
		if err := p.store.SetValue(ctx, path, fieldValue(state, f)); err != nil {
			log.Warn().Err(err).Str("node", path).Msg("Failed to publish node")
			errs = append(errs, fmt.Errorf("node %s: %w", path, err))
			continue
		}
	}

	path := p.root + "/" + fullDataNode
	if err := p.store.SetValue(ctx, path, store.String(state.String())); err != nil {
		log.Warn().Err(err).Str("node", path).Msg("Failed to publish node")
		errs = append(errs, fmt.Errorf("node %s: %w", path, err))
	}

	return errors.Join(errs...)
}

// SetConnected updates the connected node.
func (p *Publisher) SetConnected(ctx context.Context, connected bool) error {
	return p.store.SetValue(ctx, p.root+"/"+connectedNode, store.Bool(connected))
}

// fieldValue converts a field's value into the store's tagged variant. This
// is the single typed codepath between decoded state and node payloads.
func fieldValue(s report.State, f report.Field) store.Value {
	switch v := report.FieldValue(s, f).(type) {
	case bool:
		return store.Bool(v)
	case float64:
		return store.Float(v)
	case report.DPad:
		return store.String(v.String())
	default:
		// FieldValue only produces the three kinds above.
		return store.String(fmt.Sprint(v))
	}
}
