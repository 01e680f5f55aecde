package meter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nerrad567/powerbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/powerbridge/internal/meter/sml"
)

// Publisher sends a payload to a bus topic.
// Compatible with *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the structured logger used by the reader.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a Reader.
type Options struct {
	// Source is the meter byte stream. Required.
	Source io.Reader

	// Publisher receives the readings. Required.
	Publisher Publisher

	// TopicPrefix is the topic below which current and total are published.
	TopicPrefix string

	// Logger is optional.
	Logger Logger
}

// Reader turns an SML byte stream into power readings on the bus.
type Reader struct {
	frames    *sml.FrameReader
	publisher Publisher
	current   string
	total     string
	logger    Logger
}

// NewReader creates a Reader. Call Run to start reading.
func NewReader(opts Options) (*Reader, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	topics := mqtt.Topics{}
	return &Reader{
		frames:    sml.NewFrameReader(opts.Source),
		publisher: opts.Publisher,
		current:   topics.Current(opts.TopicPrefix),
		total:     topics.Total(opts.TopicPrefix),
		logger:    logger,
	}, nil
}

// Run reads frames until the stream ends, ctx is cancelled or a publish
// fails.
//
// Frames that fail their checksum or cannot be decoded are logged and
// skipped. The end of the stream and cancellation return nil.
//
// Cancellation is only noticed between frames; callers reading a serial
// port close it to interrupt a pending read.
func (r *Reader) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		body, err := r.frames.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			if isFrameError(err) {
				r.logger.Warn("discarding SML frame", "error", err)
				continue
			}
			return fmt.Errorf("reading meter: %w", err)
		}

		if err := r.handleFrame(body); err != nil {
			return err
		}
	}
}

// handleFrame decodes one SML file and publishes the readings it carries.
func (r *Reader) handleFrame(body []byte) error {
	msgs, err := sml.ParseFile(body)
	if err != nil {
		r.logger.Warn("discarding undecodable SML file", "error", err)
		return nil
	}

	readings, err := sml.ExtractReadings(msgs)
	if err != nil {
		r.logger.Warn("discarding SML file", "error", err)
		return nil
	}

	if err := r.publish(r.current, readings.Current); err != nil {
		return err
	}
	return r.publish(r.total, readings.Total)
}

// publish sends reading to topic. Missing and negative readings are not sent.
func (r *Reader) publish(topic string, reading *sml.Reading) error {
	if reading == nil || reading.Value < 0 {
		return nil
	}

	payload := reading.Format()
	if err := r.publisher.Publish(topic, []byte(payload), 0, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	r.logger.Debug("reading published", "topic", topic, "payload", payload)
	return nil
}

func isFrameError(err error) bool {
	return errors.Is(err, sml.ErrChecksum) ||
		errors.Is(err, sml.ErrInvalidFrame) ||
		errors.Is(err, sml.ErrFrameTooLarge)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
