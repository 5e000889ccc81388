package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox/registry"
)

type result string

const (
	resultPublished    result = "published"
	resultRetry        result = "retry"
	resultDeadLettered result = "dead_lettered"
)

// delivery is what happened to one outbox row inside a batch.
type delivery struct {
	event   models.OutboxEvent
	topic   string
	eventID string
	result  result
	reason  enums.OutboxDLQErrorReason
	err     error
}

// processBatch claims up to batchSize rows and settles each one inside the
// same transaction. It reports whether any rows were claimed.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		s.metrics.ObserveBatch(len(events))
		processed = len(events) > 0

		for _, event := range events {
			if err := s.settle(ctx, tx, s.deliver(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		d.result, d.reason, d.err = resultDeadLettered, enums.OutboxDLQReasonNonRetryable, err
		return d
	}
	d.topic = resolved.Descriptor.Topic
	d.eventID = resolved.Envelope.EventID

	err = s.publish(ctx, event, resolved)
	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		d.result = resultPublished
	case errors.As(err, &nonRetry):
		d.result, d.reason, d.err = resultDeadLettered, enums.OutboxDLQReasonNonRetryable, err
	case event.AttemptCount+1 >= s.maxAttempts:
		d.result, d.reason = resultDeadLettered, enums.OutboxDLQReasonMaxAttempts
		d.err = fmt.Errorf("max publish attempts reached: %w", err)
	default:
		d.result, d.err = resultRetry, err
	}
	return d
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, d delivery) error {
	id := d.event.ID
	logCtx := s.logg.WithFields(ctx, d.fields(s.batchSize))

	switch d.result {
	case resultPublished:
		if err := s.repo.MarkPublishedTx(tx, id); err != nil {
			return fmt.Errorf("mark published %s: %w", id, err)
		}
		s.logg.Info(logCtx, "outbox.published")

	case resultRetry:
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox.publish_failed")
		if err := s.repo.MarkFailedTx(tx, id, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", id, err)
		}

	case resultDeadLettered:
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox.dead_lettered")
		msg := d.err.Error()
		entry := models.OutboxDLQ{
			EventID:       id,
			EventType:     d.event.EventType,
			AggregateType: d.event.AggregateType,
			AggregateID:   d.event.AggregateID,
			Payload:       d.event.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &msg,
			AttemptCount:  d.event.AttemptCount,
			FailedAt:      time.Now().UTC(),
		}
		if err := s.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("insert dlq %s: %w", id, err)
		}
		if err := s.repo.MarkTerminalTx(tx, id, d.err, s.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", id, err)
		}
	}

	s.metrics.IncEvent(string(d.event.EventType), string(d.result))
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	res := pub.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if res == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := res.Get(publishCtx); err != nil {
		return classifyPublishError(err)
	}
	return nil
}

// Pub/Sub answers these codes for requests that will fail the same way on
// every retry: bad message, missing topic, missing permission.
var permanentCodes = map[codes.Code]bool{
	codes.InvalidArgument:  true,
	codes.NotFound:         true,
	codes.PermissionDenied: true,
	codes.Unauthenticated:  true,
}

func classifyPublishError(err error) error {
	if permanentCodes[status.Code(err)] {
		return registry.NewNonRetryableError(err)
	}
	return err
}

func (d delivery) fields(batchSize int) map[string]any {
	fields := map[string]any{
		"outbox_id":      d.event.ID.String(),
		"event_type":     d.event.EventType,
		"aggregate_type": d.event.AggregateType,
		"aggregate_id":   d.event.AggregateID.String(),
		"attempt_count":  d.event.AttemptCount,
		"batch_size":     batchSize,
	}
	if d.result != resultPublished {
		fields["attempt_count"] = d.event.AttemptCount + 1
	}
	if d.reason != "" {
		fields["error_reason"] = d.reason
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["event_id"] = d.eventID
	}
	return fields
}
