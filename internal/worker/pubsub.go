package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by Dispatch for a job type with no handler.
var ErrUnknownJob = errors.New("unknown job type")

// JobMessage is the envelope of every job published on the jobs topic.
type JobMessage struct {
	JobType  string    `json:"job_type"`
	Version  string    `json:"version,omitempty"`
	Key      string    `json:"key,omitempty"`
	IssuedAt time.Time `json:"issued_at,omitempty"`
}

// JobFunc runs one job.
type JobFunc func(ctx context.Context, msg JobMessage) error

// Dispatcher routes job messages to registered handlers by job type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]JobFunc
	logger   zerolog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]JobFunc),
		logger:   logger,
	}
}

// Handle registers fn for jobType, replacing any previous handler.
func (d *Dispatcher) Handle(jobType string, fn JobFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = fn
}

// JobTypes returns the registered job types.
func (d *Dispatcher) JobTypes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for k := range d.handlers {
		out = append(out, k)
	}
	return out
}

// Dispatch decodes data and runs the matching handler. Malformed payloads
// and unknown job types return an error wrapping ErrUnknownJob or a decode
// error; callers ack those since redelivery cannot help.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) (JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decoding job message: %w", err)
	}

	d.mu.RLock()
	fn, ok := d.handlers[msg.JobType]
	d.mu.RUnlock()
	if !ok {
		return msg, fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}

	return msg, fn(ctx, msg)
}

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Strs("job_types", h.dispatcher.JobTypes()).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if h.handleMessage(ctx, msg.ID, msg.PublishTime, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handleMessage runs one message and reports whether it should be acked.
func (h *PubSubHandler) handleMessage(ctx context.Context, id string, published time.Time, data []byte) bool {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", id).
		Str("publish_time", published.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	job, err := h.dispatcher.Dispatch(ctx, data)
	switch {
	case err == nil:
		logger.Info().
			Str("job_type", job.JobType).
			Dur("duration", time.Since(startTime)).
			Msg("job completed successfully")
		return true
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		return true
	case job.JobType == "":
		logger.Error().Err(err).Msg("failed to parse message")
		return false
	default:
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		return false
	}
}
