// Package eventstream publishes Vesting lifecycle events to RabbitMQ.
//
// Each hook serializes a small JSON envelope and publishes it to a durable
// queue. Downstream consumers (indexers, notification services, reporting
// jobs) replay the stream without coupling to the engine's store.
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/program"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Publisher)(nil)
	_ plugin.OnShutdown            = (*Publisher)(nil)
	_ plugin.OnProgramCreated      = (*Publisher)(nil)
	_ plugin.OnStartTimeUpdated    = (*Publisher)(nil)
	_ plugin.OnUnlockPeriodUpdated = (*Publisher)(nil)
	_ plugin.OnBeneficiaryAdded    = (*Publisher)(nil)
	_ plugin.OnBeneficiariesAdded  = (*Publisher)(nil)
	_ plugin.OnClaimed             = (*Publisher)(nil)
	_ plugin.OnClaimFailed         = (*Publisher)(nil)
	_ plugin.OnUnlockBoundary      = (*Publisher)(nil)
)

// DefaultQueue is the queue events are published to unless WithQueue overrides it.
const DefaultQueue = "vesting.events"

// Event is the JSON envelope published for every lifecycle event.
type Event struct {
	Type       string         `json:"type"`
	ProgramKey string         `json:"program_key,omitempty"`
	Address    string         `json:"address,omitempty"`
	Amount     string         `json:"amount,omitempty"`
	Period     uint64         `json:"period,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Event type values.
const (
	EventProgramCreated      = "program.created"
	EventStartTimeUpdated    = "start_time.updated"
	EventUnlockPeriodUpdated = "unlock_period.updated"
	EventBeneficiaryAdded    = "beneficiary.added"
	EventBeneficiariesAdded  = "beneficiaries.added"
	EventClaimSettled        = "claim.settled"
	EventClaimFailed         = "claim.failed"
	EventUnlockBoundary      = "unlock.boundary"
)

// Publisher streams vesting events to a RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithQueue overrides the destination queue name.
func WithQueue(name string) Option {
	return func(p *Publisher) { p.queue = name }
}

// WithLogger sets the logger used for publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New dials the broker at url and declares the event queue.
func New(url string, opts ...Option) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("eventstream: dial broker: %w", err)
	}
	p, err := NewFromConnection(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// NewFromConnection builds a Publisher on an existing connection.
// The caller retains ownership of the connection; OnShutdown closes
// only the channel the Publisher opened.
func NewFromConnection(conn *amqp.Connection, opts ...Option) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("eventstream: open channel: %w", err)
	}

	p := &Publisher{
		conn:    conn,
		channel: ch,
		queue:   DefaultQueue,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("eventstream: declare queue %q: %w", p.queue, err)
	}
	return p, nil
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "event-stream" }

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Program lifecycle hooks
// ──────────────────────────────────────────────────

// OnProgramCreated implements plugin.OnProgramCreated.
func (p *Publisher) OnProgramCreated(ctx context.Context, prog interface{}) error {
	evt := Event{Type: EventProgramCreated, OccurredAt: time.Now().UTC()}
	if pr, ok := prog.(*program.Program); ok {
		evt.ProgramKey = pr.Key
		evt.Detail = map[string]any{
			"pool_total":  pr.PoolTotal.String(),
			"tge_percent": pr.TGEPercent,
		}
	}
	return p.publish(ctx, evt)
}

// OnStartTimeUpdated implements plugin.OnStartTimeUpdated.
func (p *Publisher) OnStartTimeUpdated(ctx context.Context, programKey string, newStart time.Time) error {
	return p.publish(ctx, Event{
		Type:       EventStartTimeUpdated,
		ProgramKey: programKey,
		OccurredAt: time.Now().UTC(),
		Detail:     map[string]any{"start_time": newStart},
	})
}

// OnUnlockPeriodUpdated implements plugin.OnUnlockPeriodUpdated.
func (p *Publisher) OnUnlockPeriodUpdated(ctx context.Context, newPeriod time.Duration) error {
	return p.publish(ctx, Event{
		Type:       EventUnlockPeriodUpdated,
		OccurredAt: time.Now().UTC(),
		Detail:     map[string]any{"unlock_period": newPeriod.String()},
	})
}

// ──────────────────────────────────────────────────
// Beneficiary lifecycle hooks
// ──────────────────────────────────────────────────

// OnBeneficiaryAdded implements plugin.OnBeneficiaryAdded.
func (p *Publisher) OnBeneficiaryAdded(ctx context.Context, rec interface{}) error {
	evt := Event{Type: EventBeneficiaryAdded, OccurredAt: time.Now().UTC()}
	if r, ok := rec.(*beneficiary.Record); ok {
		evt.ProgramKey = r.ProgramKey
		evt.Address = r.Address
		evt.Amount = r.TotalAmount.String()
	}
	return p.publish(ctx, evt)
}

// OnBeneficiariesAdded implements plugin.OnBeneficiariesAdded.
func (p *Publisher) OnBeneficiariesAdded(ctx context.Context, programKey string, recs []interface{}) error {
	return p.publish(ctx, Event{
		Type:       EventBeneficiariesAdded,
		ProgramKey: programKey,
		OccurredAt: time.Now().UTC(),
		Detail:     map[string]any{"count": len(recs)},
	})
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (p *Publisher) OnClaimed(ctx context.Context, receipt interface{}) error {
	evt := Event{Type: EventClaimSettled, OccurredAt: time.Now().UTC()}
	if r, ok := receipt.(*claim.Receipt); ok {
		evt.ProgramKey = r.ProgramKey
		evt.Address = r.Address
		evt.Amount = r.Amount.String()
		evt.Period = r.PeriodIndex
		evt.Detail = map[string]any{"receipt_id": r.ID.String()}
	}
	return p.publish(ctx, evt)
}

// OnClaimFailed implements plugin.OnClaimFailed.
func (p *Publisher) OnClaimFailed(ctx context.Context, programKey, address string, amount interface{}, err error) error {
	return p.publish(ctx, Event{
		Type:       EventClaimFailed,
		ProgramKey: programKey,
		Address:    address,
		Amount:     fmt.Sprintf("%v", amount),
		OccurredAt: time.Now().UTC(),
		Detail:     map[string]any{"error": err.Error()},
	})
}

// ──────────────────────────────────────────────────
// Watcher hooks
// ──────────────────────────────────────────────────

// OnUnlockBoundary implements plugin.OnUnlockBoundary.
func (p *Publisher) OnUnlockBoundary(ctx context.Context, programKey string, periodIndex uint64, at time.Time) error {
	return p.publish(ctx, Event{
		Type:       EventUnlockBoundary,
		ProgramKey: programKey,
		Period:     periodIndex,
		OccurredAt: at.UTC(),
	})
}

// publish serializes the event and sends it to the queue. Publish failures
// are logged rather than returned so a broker outage never blocks a claim.
func (p *Publisher) publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("eventstream: marshal event: %w", err)
	}

	if err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		p.logger.Warn("eventstream: failed to publish event",
			"type", evt.Type,
			"program", evt.ProgramKey,
			"error", err,
		)
	}
	return nil
}
