package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/logger"
)

const day = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterPruner interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionParams configure the outbox pruning job.
type OutboxRetentionParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Outbox        publishedPruner
	DLQ           deadLetterPruner
	RetentionDays int
	DLQDays       int
}

// OutboxRetentionJob deletes published order events and old dead letters.
type OutboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	outbox    publishedPruner
	dlq       deadLetterPruner
	retention time.Duration
	dlqKeep   time.Duration
	now       func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionParams) (*OutboxRetentionJob, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("db required")
	case params.Outbox == nil:
		return nil, errors.New("outbox repository required")
	case params.DLQ == nil:
		return nil, errors.New("dlq repository required")
	case params.RetentionDays < 1 || params.DLQDays < 1:
		return nil, errors.New("retention must be at least one day")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &OutboxRetentionJob{
		logg:      logg,
		db:        params.DB,
		outbox:    params.Outbox,
		dlq:       params.DLQ,
		retention: time.Duration(params.RetentionDays) * day,
		dlqKeep:   time.Duration(params.DLQDays) * day,
		now:       time.Now,
	}, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var published, deadLettered int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if published, err = j.outbox.DeletePublishedBefore(ctx, tx, now.Add(-j.retention)); err != nil {
			return fmt.Errorf("prune published events: %w", err)
		}
		if deadLettered, err = j.dlq.DeleteFailedBefore(ctx, tx, now.Add(-j.dlqKeep)); err != nil {
			return fmt.Errorf("prune dead letters: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"published_deleted":    published,
		"dead_letters_deleted": deadLettered,
	}), "cron.outbox_pruned")
	return nil
}
