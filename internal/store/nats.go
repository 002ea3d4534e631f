// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	// DefaultURL is the NATS server to connect to when none is configured.
	DefaultURL = nats.DefaultURL

	// DefaultBucket is the JetStream Key-Value bucket holding the nodes.
	DefaultBucket = "gamepad"
)

// NATSConfig configures the NATS-backed store.
type NATSConfig struct {
	URL    string
	Bucket string
	Name   string // client connection name
}

// NATS publishes node values into a JetStream Key-Value bucket. Node paths
// are used verbatim as keys, so the bucket mirrors the node hierarchy and
// consumers can watch individual nodes with latest-value semantics.
type NATS struct {
	nc *nats.Conn
	kv nats.KeyValue
}

// Verify NATS implements Store.
var _ Store = (*NATS)(nil)

// NewNATS connects to the NATS server and binds the Key-Value bucket,
// creating it if it does not exist yet.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Name == "" {
		cfg.Name = "gamepad-bridge"
	}

	nc, err := nats.Connect(cfg.URL, nats.Name(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	kv, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "gamepad controller state nodes",
		})
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to bind bucket %s: %w", cfg.Bucket, err)
	}

	return &NATS{nc: nc, kv: kv}, nil
}

// RegisterNode creates the node with its initial value. Re-registering an
// existing node resets it to the initial value.
func (s *NATS) RegisterNode(ctx context.Context, path string, initial Value) error {
	return s.SetValue(ctx, path, initial)
}

// SetValue writes a new value to the node.
func (s *NATS) SetValue(ctx context.Context, path string, value Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.kv.Put(path, value.Encode()); err != nil {
		return fmt.Errorf("failed to write node %s: %w", path, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (s *NATS) Close() error {
	if s.nc == nil {
		return nil
	}
	s.nc.Close()
	s.nc = nil
	return nil
}
