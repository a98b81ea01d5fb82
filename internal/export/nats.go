// Package export streams flow search results to a NATS subject.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/nats-io/nats.go"
)

// ErrPublisherRequired is returned by NewExporter for a nil publisher.
var ErrPublisherRequired = errors.New("publisher is required")

// Publisher is the subset of *nats.Conn the exporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Message is the payload published for every flow.
type Message struct {
	InstanceID string        `json:"instance_id"`
	Flow       *prophet.Flow `json:"flow"`
}

// Connect dials a NATS server. The returned connection satisfies Publisher.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(constants.ShortHTTPTimeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return conn, nil
}

// Exporter publishes each record of a flow iterator as one JSON message.
type Exporter struct {
	publisher    Publisher
	subject      string
	instanceID   string
	flushTimeout time.Duration
	logger       prophet.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger prophet.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFlushTimeout bounds the final flush.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(e *Exporter) {
		if timeout > 0 {
			e.flushTimeout = timeout
		}
	}
}

// WithInstanceID stamps every message with the instance the records came from.
func WithInstanceID(instanceID string) Option {
	return func(e *Exporter) {
		e.instanceID = instanceID
	}
}

// NewExporter creates an exporter publishing on subject. An empty subject
// selects the default.
func NewExporter(publisher Publisher, subject string, opts ...Option) (*Exporter, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}

	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	exporter := &Exporter{
		publisher:    publisher,
		subject:      subject,
		flushTimeout: constants.DefaultExportFlushTimeout,
		logger:       prophet.NopLogger{},
	}

	for _, opt := range opts {
		opt(exporter)
	}

	return exporter, nil
}

// Subject returns the subject messages are published on.
func (e *Exporter) Subject() string {
	return e.subject
}

// Export drains it, publishing every record, and flushes once at the end.
// It returns the number of records published, which is also reported when
// an error cuts the export short.
func (e *Exporter) Export(ctx context.Context, it *prophet.FlowIterator) (int, error) {
	published := 0

	err := it.ForEach(ctx, func(flow *prophet.Flow) error {
		err := ctx.Err()
		if err != nil {
			return err
		}

		data, err := json.Marshal(Message{InstanceID: e.instanceID, Flow: flow})
		if err != nil {
			return fmt.Errorf("encoding flow: %w", err)
		}

		err = e.publisher.Publish(e.subject, data)
		if err != nil {
			return fmt.Errorf("publishing to %s: %w", e.subject, err)
		}

		published++

		return nil
	})
	if err != nil {
		e.logger.Error("Flow export aborted", map[string]interface{}{
			"subject":   e.subject,
			"published": published,
			"error":     err.Error(),
		})

		return published, err
	}

	err = e.publisher.FlushTimeout(e.flushTimeout)
	if err != nil {
		return published, fmt.Errorf("flushing %s: %w", e.subject, err)
	}

	e.logger.Info("Flow export complete", map[string]interface{}{
		"subject":   e.subject,
		"published": published,
	})

	return published, nil
}
