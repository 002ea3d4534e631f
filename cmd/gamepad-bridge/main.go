// Package main provides the entry point for the gamepad data-layer bridge.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hwbridge/gamepad-bridge/internal/bridge"
	"github.com/hwbridge/gamepad-bridge/internal/dbus"
	"github.com/hwbridge/gamepad-bridge/internal/hid"
	"github.com/hwbridge/gamepad-bridge/internal/publisher"
	"github.com/hwbridge/gamepad-bridge/internal/store"
	"github.com/hwbridge/gamepad-bridge/internal/udev"
)

var (
	verbose     bool
	vendorID    uint16
	productID   uint16
	natsURL     string
	bucket      string
	nodeRoot    string
	readTimeout time.Duration
	backoff     time.Duration
	maxRetries  int

	rootCmd = &cobra.Command{
		Use:   "gamepad-bridge",
		Short: "Daemon bridging a USB gamepad into a NATS data layer",
		Long: `gamepad-bridge continuously reads input reports from a USB HID gamepad,
decodes them into a typed controller state and publishes changed values as
named nodes in a NATS JetStream Key-Value bucket.

It also exposes a D-Bus status interface and reacts to USB hot-plug events
so an unplugged controller is picked up again as soon as it returns.`,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(run())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().Uint16Var(&vendorID, "vendor-id", hid.LogitechVendorID, "USB vendor ID of the gamepad")
	rootCmd.Flags().Uint16Var(&productID, "product-id", hid.F310ProductID, "USB product ID of the gamepad")
	rootCmd.Flags().StringVar(&natsURL, "nats-url", store.DefaultURL, "NATS server URL")
	rootCmd.Flags().StringVar(&bucket, "bucket", store.DefaultBucket, "JetStream Key-Value bucket for the nodes")
	rootCmd.Flags().StringVar(&nodeRoot, "node-root", publisher.DefaultRoot, "Address root of the published nodes")
	rootCmd.Flags().DurationVar(&readTimeout, "read-timeout", bridge.DefaultReadTimeout, "Bounded wait for the next input report")
	rootCmd.Flags().DurationVar(&backoff, "backoff", bridge.DefaultBackoff, "Base delay between device reopen attempts")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", bridge.DefaultMaxRetries, "Consecutive reopen attempts before giving up")
}

func run() int {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("Starting gamepad-bridge")

	// Connect to the data layer
	st, err := store.NewNATS(store.NATSConfig{
		URL:    natsURL,
		Bucket: bucket,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to data layer")
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close data layer connection")
		}
	}()

	pub := publisher.New(st, nodeRoot)

	br := bridge.New(bridge.Config{
		VendorID:    vendorID,
		ProductID:   productID,
		ReadTimeout: readTimeout,
		Backoff:     backoff,
		MaxRetries:  maxRetries,
	}, pub)

	// The D-Bus surface is informational; the daemon stays useful without it.
	server := dbus.NewServer(br)
	if err := server.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start D-Bus server (status interface disabled)")
	} else {
		defer func() {
			if err := server.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop D-Bus server")
			}
		}()
	}

	br.OnConnectionChange(connectionHandler(server))

	// Hot-plug events cut the reopen backoff short
	monitor := udev.NewMonitor(vendorID, productID, hotplugHandler(br))
	monitor.SetRecoveryHandler(br.NotifyHotplug)
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start udev monitor (hot-plug detection disabled)")
	} else {
		defer func() {
			if err := monitor.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop udev monitor")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("Daemon running, press Ctrl+C to stop")

	if err := br.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Acquisition loop failed")
		return 1
	}

	log.Info().Msg("Daemon stopped")
	return 0
}

// connectionHandler mirrors bridge connection transitions as D-Bus signals.
func connectionHandler(server *dbus.Server) bridge.ConnectionHandler {
	return func(connected bool, info hid.DeviceInfo) {
		if connected {
			server.EmitDeviceConnected(info.Product, info.Serial)
		} else {
			server.EmitDeviceDisconnected()
		}
	}
}

// hotplugHandler nudges the bridge to retry a reopen when the gamepad is
// plugged back in. Remove events need no reaction; the read loop notices the
// loss on its own.
func hotplugHandler(br *bridge.Bridge) udev.EventHandler {
	return func(event udev.Event) {
		if event.Type == udev.EventAdd {
			br.NotifyHotplug()
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
