package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/jobs"
	"github.com/noah-isme/records-panel/pkg/middleware/requestid"
)

const mutationJobType = "panel.mutation"

// AuditWriter persists audit rows.
type AuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// EventPublisher publishes keyed messages.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// MutationDispatcher fans successful mutations out to the audit trail and the
// event stream from a background worker pool. Its failures are logged and
// never reach the user.
type MutationDispatcher struct {
	queue   *jobs.Queue
	audit   AuditWriter
	events  EventPublisher
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMutationDispatcher constructs a dispatcher. audit and events may be nil
// when the corresponding sink is disabled.
func NewMutationDispatcher(audit AuditWriter, events EventPublisher, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger) *MutationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	d := &MutationDispatcher{audit: audit, events: events, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("mutations", d.Handle, cfg)
	return d
}

// Start launches the workers.
func (d *MutationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains queued events and waits for the workers.
func (d *MutationDispatcher) Stop() {
	d.queue.Stop()
}

// Record implements MutationRecorder.
func (d *MutationDispatcher) Record(ctx context.Context, event models.MutationEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestid.FromContext(ctx)
	}
	d.metrics.CountMutation(string(event.Entity), event.Action)

	if err := d.queue.Enqueue(jobs.Job{ID: event.ID, Type: mutationJobType, Payload: event}); err != nil {
		d.logger.Warn("mutation event dropped",
			zap.String("event_id", event.ID),
			zap.String("key", event.Key()),
			zap.Error(err),
		)
	}
}

// Handle processes one queued mutation. The audit insert is idempotent on the
// event id, so retries do not duplicate rows.
func (d *MutationDispatcher) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.MutationEvent)
	if !ok {
		d.logger.Error("unexpected mutation payload", zap.String("job_id", job.ID))
		return nil
	}

	if d.audit != nil {
		start := time.Now()
		err := d.audit.Create(ctx, auditLogFromEvent(event))
		d.metrics.ObserveDBQuery("audit_create", time.Since(start))
		if err != nil {
			return fmt.Errorf("audit mutation %s: %w", event.ID, err)
		}
	}

	if d.events != nil {
		value, err := json.Marshal(event)
		if err != nil {
			d.logger.Error("encode mutation event", zap.String("event_id", event.ID), zap.Error(err))
			return nil
		}
		if err := d.events.Publish(ctx, []byte(event.Key()), value); err != nil {
			return fmt.Errorf("publish mutation %s: %w", event.ID, err)
		}
	}

	d.logger.Debug("mutation dispatched",
		zap.String("event_id", event.ID),
		zap.String("action", event.Action),
		zap.String("key", event.Key()),
	)
	return nil
}

func auditLogFromEvent(event models.MutationEvent) *models.AuditLog {
	log := &models.AuditLog{
		ID:        event.ID,
		Action:    event.Action,
		Resource:  string(event.Entity),
		NewValues: event.Payload,
		RequestID: event.RequestID,
		CreatedAt: event.OccurredAt,
	}
	if event.SessionID != "" {
		sid := event.SessionID
		log.SessionID = &sid
	}
	if event.RecordID != "" {
		id := event.RecordID
		log.ResourceID = &id
	}
	return log
}
