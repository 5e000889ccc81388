package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cartsync-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
	"github.com/angelmondragon/cartsync-backend/pkg/enums"
	"github.com/angelmondragon/cartsync-backend/pkg/outbox"
)

func TestOutboxRetentionPrunesOldRows(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	insertEvent := func(publishedAt *time.Time) uuid.UUID {
		event := models.OutboxEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			PublishedAt:   publishedAt,
		}
		require.NoError(t, db.Create(&event).Error)
		return event.ID
	}
	old := now.Add(-40 * day)
	recent := now.Add(-2 * day)
	insertEvent(&old)
	keptPublished := insertEvent(&recent)
	keptPending := insertEvent(nil)

	insertDLQ := func(failedAt time.Time) {
		require.NoError(t, db.Create(&models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			FailedAt:      failedAt,
		}).Error)
	}
	insertDLQ(now.Add(-100 * day))
	insertDLQ(now.Add(-10 * day))

	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		DB:            client,
		Outbox:        outbox.NewRepository(db),
		DLQ:           outbox.NewDLQRepository(db),
		RetentionDays: 30,
		DLQDays:       90,
	})
	require.NoError(t, err)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("created_at").Find(&remaining).Error)
	ids := make([]uuid.UUID, 0, len(remaining))
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	require.ElementsMatch(t, []uuid.UUID{keptPublished, keptPending}, ids)

	var dlqCount int64
	require.NoError(t, db.Model(&models.OutboxDLQ{}).Count(&dlqCount).Error)
	require.EqualValues(t, 1, dlqCount)
}

type failingPruner struct{}

func (failingPruner) DeletePublishedBefore(context.Context, *gorm.DB, time.Time) (int64, error) {
	return 0, errors.New("boom")
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestOutboxRetentionPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		DB:            passthroughTx{},
		Outbox:        failingPruner{},
		DLQ:           outbox.NewDLQRepository(nil),
		RetentionDays: 1,
		DLQDays:       1,
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}

func TestNewOutboxRetentionJobValidation(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionParams{
		DB:            passthroughTx{},
		Outbox:        failingPruner{},
		DLQ:           outbox.NewDLQRepository(nil),
		RetentionDays: 0,
		DLQDays:       1,
	})
	require.Error(t, err)
}
