// SPDX-License-Identifier: GPL-3.0-only

// Package bridge owns the read-decode-diff-publish cycle between the
// gamepad transport and the data layer.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hwbridge/gamepad-bridge/internal/hid"
	"github.com/hwbridge/gamepad-bridge/internal/publisher"
	"github.com/hwbridge/gamepad-bridge/internal/report"
)

// ErrRecoveryExhausted is returned when the configured number of
// consecutive reopen attempts failed and the loop gives up.
var ErrRecoveryExhausted = errors.New("gamepad recovery attempts exhausted")

const (
	// DefaultReadTimeout bounds the wait for the next input report so the
	// loop can observe a shutdown request promptly.
	DefaultReadTimeout = 500 * time.Millisecond

	// DefaultBackoff is the base delay between reopen attempts.
	DefaultBackoff = 500 * time.Millisecond

	// DefaultMaxRetries is the number of consecutive reopen attempts
	// before the loop surfaces a fatal error.
	DefaultMaxRetries = 5
)

// Config holds the acquisition loop parameters.
type Config struct {
	VendorID    uint16
	ProductID   uint16
	ReadTimeout time.Duration
	Backoff     time.Duration
	MaxRetries  int
}

// Option is a functional option for configuring a Bridge.
type Option func(*Bridge)

// WithOpener sets a custom device opener for testing.
func WithOpener(open hid.DeviceOpener) Option {
	return func(b *Bridge) {
		b.open = open
	}
}

// ConnectionHandler is called on every device connect/disconnect transition.
type ConnectionHandler func(connected bool, info hid.DeviceInfo)

// Bridge runs a single sequential worker that owns the device handle and
// the last-published state, so no locking is needed inside the cycle. The
// mutex only guards the read-only snapshot exposed to the D-Bus surface.
type Bridge struct {
	cfg     Config
	pub     *publisher.Publisher
	open    hid.DeviceOpener
	hotplug chan struct{}

	mu        sync.RWMutex
	connected bool
	info      hid.DeviceInfo
	snapshot  *report.State

	onConnection ConnectionHandler
}

// New creates a Bridge for the given loop configuration and publisher.
func New(cfg Config, pub *publisher.Publisher, opts ...Option) *Bridge {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	b := &Bridge{
		cfg:     cfg,
		pub:     pub,
		open:    defaultOpener,
		hotplug: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// defaultOpener wraps OpenGamepad to match the expected signature.
func defaultOpener(vendorID, productID uint16) (hid.Device, error) {
	return hid.OpenGamepad(vendorID, productID)
}

// OnConnectionChange sets the handler fired on connect/disconnect
// transitions. It must be set before Run is called.
func (b *Bridge) OnConnectionChange(handler ConnectionHandler) {
	b.onConnection = handler
}

// NotifyHotplug nudges the loop to retry a reopen immediately instead of
// waiting out the current backoff delay. Safe to call from any goroutine.
func (b *Bridge) NotifyHotplug() {
	select {
	case b.hotplug <- struct{}{}:
	default:
	}
}

// Connected reports whether a gamepad is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Info returns information about the attached gamepad.
func (b *Bridge) Info() hid.DeviceInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info
}

// State returns the most recently published state. The second return is
// false until the first report has been decoded.
func (b *Bridge) State() (report.State, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.snapshot == nil {
		return report.State{}, false
	}
	return *b.snapshot, true
}

// Run executes the acquisition loop until ctx is canceled or a fatal error
// occurs. It opens the device, registers all nodes, then repeatedly reads,
// decodes, diffs and publishes. Read errors trigger bounded reopen attempts
// with linear backoff; exhausting them returns ErrRecoveryExhausted. A nil
// return means graceful shutdown.
func (b *Bridge) Run(ctx context.Context) error {
	dev, err := b.open(b.cfg.VendorID, b.cfg.ProductID)
	if err != nil {
		return fmt.Errorf("failed to open gamepad: %w", err)
	}
	pad := hid.NewGamepad(dev)

	if err := b.pub.Register(ctx); err != nil {
		if closeErr := pad.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close gamepad")
		}
		return fmt.Errorf("failed to register nodes: %w", err)
	}

	b.setConnected(ctx, true, pad.Info())
	log.Info().
		Str("product", pad.ProductName()).
		Str("serial", pad.Serial()).
		Msg("Gamepad opened")

	sess := startSession(pad)
	defer func() {
		sess.stop()
		if err := pad.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close gamepad")
		}
		// Publish the final connected=false even though ctx may already
		// be canceled.
		b.setConnected(context.WithoutCancel(ctx), false, hid.DeviceInfo{})
	}()

	var last *report.State

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutdown requested, stopping acquisition loop")
			return nil

		case data, ok := <-sess.reports:
			if !ok {
				// The reader goroutine stopped on a read error.
				log.Warn().Err(sess.err()).Msg("Read failed, attempting to recover")
				if err := pad.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close gamepad")
				}
				b.setConnected(ctx, false, hid.DeviceInfo{})

				reopened, err := b.reopen(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				pad = reopened
				sess = startSession(pad)
				b.setConnected(ctx, true, pad.Info())
				last = nil // force a full publish after reconnect
				log.Info().
					Str("product", pad.ProductName()).
					Msg("Gamepad reopened")
				continue
			}

			state, err := report.Decode(data)
			if err != nil {
				// A malformed report length means the transport is
				// misconfigured; surface it instead of masking it.
				return fmt.Errorf("failed to decode report: %w", err)
			}

			changed := report.Diff(last, state)
			if err := b.pub.Publish(ctx, changed, state); err != nil {
				log.Warn().Err(err).Int("fields", len(changed)).Msg("Publish cycle completed with errors")
			}

			s := state
			last = &s
			b.mu.Lock()
			b.snapshot = &s
			b.mu.Unlock()

		case <-time.After(b.cfg.ReadTimeout):
			// No new input within the bounded wait; nothing to publish.
		}
	}
}

// reopen attempts to reacquire the device with linear backoff. A hot-plug
// notification cuts the current wait short. It returns ctx.Err() on
// cancellation and ErrRecoveryExhausted after MaxRetries failed attempts.
func (b *Bridge) reopen(ctx context.Context) (*hid.Gamepad, error) {
	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		// Linear backoff: 500ms, 1000ms, 1500ms, ...
		backoff := time.Duration(attempt) * b.cfg.Backoff
		log.Debug().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Waiting before reopen attempt")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.hotplug:
			log.Info().Msg("Hot-plug event received, retrying immediately")
		case <-time.After(backoff):
		}

		dev, err := b.open(b.cfg.VendorID, b.cfg.ProductID)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("maxRetries", b.cfg.MaxRetries).
				Msg("Reopen attempt failed")
			continue
		}

		return hid.NewGamepad(dev), nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrRecoveryExhausted, b.cfg.MaxRetries)
}

// setConnected updates the snapshot, publishes the connected node and fires
// the connection handler.
func (b *Bridge) setConnected(ctx context.Context, connected bool, info hid.DeviceInfo) {
	b.mu.Lock()
	changed := b.connected != connected
	b.connected = connected
	b.info = info
	if !connected {
		b.snapshot = nil
	}
	b.mu.Unlock()

	if err := b.pub.SetConnected(ctx, connected); err != nil {
		log.Warn().Err(err).Bool("connected", connected).Msg("Failed to publish connected node")
	}

	if changed && b.onConnection != nil {
		b.onConnection(connected, info)
	}
}
