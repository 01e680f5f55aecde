package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/powerbridge/internal/power"
)

// maxQoS is the highest MQTT quality-of-service level.
const maxQoS = 2

// MQTTClient is the subset of broker operations the bridge needs.
// This allows mocking in tests; *mqtt.Client is adapted to it in main.go.
type MQTTClient interface {
	// Connect blocks until the broker acknowledges the connection or the
	// attempt fails.
	Connect(ctx context.Context) error

	// Subscribe registers a handler for a topic filter.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// SetOnConnect registers the callback run after each successful connect.
	SetOnConnect(callback func())

	// SetOnDisconnect registers the callback run when the connection is lost.
	SetOnDisconnect(callback func(err error))
}

// Writer stores a single point in the time-series database.
type Writer interface {
	WritePoint(ctx context.Context, measurement string, fields map[string]any) error
}

// Logger is the structured logger used by the bridge.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// MQTT is the broker client. Required.
	MQTT MQTTClient

	// Writer is the database handle. Required.
	Writer Writer

	// Topic is the subscription filter, e.g. "resources/power/#". Required.
	Topic string

	// QoS is the subscription quality of service (0, 1 or 2).
	QoS byte

	// ConnectGrace is how long Run waits after a failed initial connect
	// before returning ErrConnectFailed.
	ConnectGrace time.Duration

	// WriteTimeout bounds each point write. Zero means no timeout.
	WriteTimeout time.Duration

	// Logger is optional.
	Logger Logger
}

// Bridge subscribes to power readings and writes them to the database.
//
// Thread Safety: OnConnect, OnMessage and OnDisconnect may be called from
// the MQTT client's goroutines while Run is blocked.
type Bridge struct {
	mqtt         MQTTClient
	writer       Writer
	topic        string
	qos          byte
	connectGrace time.Duration
	writeTimeout time.Duration
	logger       Logger

	state atomic.Int32

	// fatal carries the first fatal condition to Run. Later ones are dropped.
	fatal chan error

	// ctx bounds database writes and is cancelled when Run returns.
	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// New creates a bridge. Call Run to connect and start forwarding.
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if opts.QoS > maxQoS {
		return nil, fmt.Errorf("qos %d out of range", opts.QoS)
	}
	if opts.ConnectGrace < 0 {
		return nil, fmt.Errorf("connect grace must not be negative")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		mqtt:         opts.MQTT,
		writer:       opts.Writer,
		topic:        opts.Topic,
		qos:          opts.QoS,
		connectGrace: opts.ConnectGrace,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
		fatal:        make(chan error, 1),
		ctx:          ctx,
		ctxCancel:    ctxCancel,
	}
	b.state.Store(int32(StateDisconnected))

	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Run connects to the broker and forwards messages until a fatal condition
// occurs or ctx is cancelled.
//
// Returns:
//   - nil when ctx is cancelled
//   - ErrConnectFailed (wrapped) after ConnectGrace if the initial connect fails
//   - ErrDisconnected, ErrSubscribeFailed or ErrWriteFailed (wrapped) otherwise
func (b *Bridge) Run(ctx context.Context) error {
	if !b.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyStarted
	}
	defer b.stop()

	b.mqtt.SetOnConnect(b.OnConnect)
	b.mqtt.SetOnDisconnect(b.OnDisconnect)

	b.logger.Info("connecting to MQTT broker", "topic", b.topic)

	if err := b.mqtt.Connect(ctx); err != nil {
		return b.connectFailed(ctx, err)
	}

	select {
	case <-ctx.Done():
		b.logger.Info("bridge stopping", "reason", ctx.Err())
		return nil
	case err := <-b.fatal:
		return err
	}
}

// connectFailed waits out the grace period and reports ErrConnectFailed.
// A cancelled context during the wait is treated as a normal shutdown.
func (b *Bridge) connectFailed(ctx context.Context, cause error) error {
	if ctx.Err() != nil {
		return nil
	}

	b.logger.Error("MQTT connection failed",
		"error", cause,
		"exit_in", b.connectGrace.String(),
	)

	timer := time.NewTimer(b.connectGrace)
	defer timer.Stop()

	select {
	case <-timer.C:
		return fmt.Errorf("%w: %w", ErrConnectFailed, cause)
	case <-ctx.Done():
		return nil
	}
}

// stop moves the bridge to Terminated and cancels in-flight writes.
func (b *Bridge) stop() {
	b.stopOnce.Do(func() {
		b.state.Store(int32(StateTerminated))
		b.ctxCancel()
	})
}

// OnConnect subscribes to the configured topic. It is registered as the
// MQTT client's connect callback by Run.
func (b *Bridge) OnConnect() {
	if b.State() == StateTerminated {
		return
	}

	if err := b.mqtt.Subscribe(b.topic, b.qos, b.OnMessage); err != nil {
		b.logger.Error("MQTT subscribe failed", "topic", b.topic, "error", err)
		b.reportFatal(fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, b.topic, err))
		return
	}

	if b.transition(StateSubscribed) {
		b.logger.Info("subscribed", "topic", b.topic, "qos", b.qos)
	}
}

// OnMessage converts one bus message into at most one database write.
//
// Payloads without a number are dropped without logging and return nil.
// A write failure is returned and also ends Run with ErrWriteFailed.
func (b *Bridge) OnMessage(topic string, payload []byte) error {
	if b.State() == StateTerminated {
		return nil
	}

	point, ok := power.FromMessage(topic, payload)
	if !ok {
		return nil
	}

	ctx := b.ctx
	if b.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.writeTimeout)
		defer cancel()
	}

	if err := b.writer.WritePoint(ctx, point.Measurement, point.Fields()); err != nil {
		err = fmt.Errorf("%w: %w", ErrWriteFailed, err)
		b.logger.Error("writing point failed",
			"topic", topic,
			"field", string(point.Field),
			"error", err,
		)
		b.reportFatal(err)
		return err
	}

	b.logger.Debug("point written",
		"topic", topic,
		"field", string(point.Field),
		"value", point.Value,
	)

	return nil
}

// OnDisconnect ends Run with ErrDisconnected. It is registered as the MQTT
// client's connection-lost callback by Run.
func (b *Bridge) OnDisconnect(err error) {
	if !b.transition(StateDisconnected) {
		return
	}

	b.logger.Warn("MQTT connection lost", "error", err)

	if err == nil {
		b.reportFatal(ErrDisconnected)
		return
	}
	b.reportFatal(fmt.Errorf("%w: %w", ErrDisconnected, err))
}

// transition stores next unless the bridge is Terminated.
func (b *Bridge) transition(next State) bool {
	for {
		current := b.state.Load()
		if State(current) == StateTerminated {
			return false
		}
		if b.state.CompareAndSwap(current, int32(next)) {
			return true
		}
	}
}

// reportFatal hands err to Run unless a fatal condition is already pending.
func (b *Bridge) reportFatal(err error) {
	select {
	case b.fatal <- err:
	default:
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
