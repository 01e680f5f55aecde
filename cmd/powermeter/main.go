// powermeter reads an SML smart meter on a serial line and publishes its
// current power and total energy readings to MQTT, where powerbridge picks
// them up.
//
// Usage:
//
//	powermeter [device]
//
// device overrides meter.device from the configuration; "-" reads a
// recorded byte stream from standard input.
//
// Exit status:
//
//	0  stopped by signal or end of input
//	1  usage, configuration, broker or publish error
//	3  the device cannot be opened
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
	"github.com/nerrad567/powerbridge/internal/infrastructure/logging"
	"github.com/nerrad567/powerbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/powerbridge/internal/meter"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	serviceName       = "powermeter"
	defaultConfigPath = "configs/config.yaml"
)

// Process exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitDeviceFailed = 3
)

// errDisconnected is the cancellation cause when the broker connection drops.
var errDisconnected = errors.New("powermeter: broker connection lost")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:])
	cancel()

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps the result of run to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, meter.ErrOpenFailed):
		return exitDeviceFailed
	default:
		return exitFailure
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("powermeter", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: powermeter [device]")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 1 {
		flags.Usage()
		return fmt.Errorf("expected at most one device argument, got %d", flags.NArg())
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.NArg() == 1 {
		cfg.Meter.Device = flags.Arg(0)
	}

	log := logging.New(cfg.Logging, serviceName, version)
	defer func() { _ = log.Sync() }()
	log.Info("starting powermeter",
		"version", version,
		"commit", commit,
		"device", cfg.Meter.Device,
		"baud", cfg.Meter.Baud,
	)

	src, err := meter.Open(cfg.Meter.Device, cfg.Meter.Baud)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	client := mqtt.New(cfg.MQTT)
	client.SetLogger(log.With("component", "mqtt"))
	client.SetOnDisconnect(func(err error) {
		log.Error("MQTT connection lost", "error", err)
		cancel(fmt.Errorf("%w: %w", errDisconnected, err))
	})
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to broker %s:%d: %w", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port, err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	// A blocked serial read only returns once the port is closed.
	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()

	reader, err := meter.NewReader(meter.Options{
		Source:      src,
		Publisher:   client,
		TopicPrefix: cfg.Meter.TopicPrefix,
		Logger:      log.With("component", "meter"),
	})
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}

	log.Info("reading meter", "topic_prefix", cfg.Meter.TopicPrefix)
	if err := runUntilDone(ctx, reader); err != nil {
		return err
	}

	if cause := context.Cause(ctx); errors.Is(cause, errDisconnected) {
		return cause
	}

	log.Info("shutdown complete")
	return nil
}

// runner is satisfied by *meter.Reader.
type runner interface {
	Run(ctx context.Context) error
}

// runUntilDone runs r and returns its result, or nil as soon as ctx is done.
// A read blocked on stdin cannot be interrupted by closing it, so r may
// still be running when this returns; the process exits right after.
func runUntilDone(ctx context.Context, r runner) error {
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// getConfigPath returns POWERBRIDGE_CONFIG, or configs/config.yaml when it
// exists, or "" for defaults plus environment.
func getConfigPath() string {
	if path := os.Getenv("POWERBRIDGE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
