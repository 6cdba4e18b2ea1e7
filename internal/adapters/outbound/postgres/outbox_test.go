package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOutboxRepository_CreateBatchEvent(t *testing.T) {
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := domain.ImportBatchEvent{
		Type:      domain.EventType_BATCH_UPLOADED,
		BatchID:   uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		SellerID:  uuid.MustParse("223e4567-e89b-12d3-a456-426614174000"),
		CreatedAt: fixedTime,
	}

	query := "INSERT INTO outbox_events (id,entity_type,entity_id,topic,event_type,payload,status,retry_count,max_retries,last_error,available_at,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)"

	tests := map[string]struct {
		setExpectations func(mock sqlmock.Sqlmock)
		expectErr       bool
	}{
		"success": {
			setExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(query).
					WithArgs(
						sqlmock.AnyArg(),
						domain.OutboxEntityType_ImportBatch,
						event.BatchID,
						domain.OutboxTopic_ImportBatches,
						domain.EventType_BATCH_UPLOADED,
						sqlmock.AnyArg(),
						domain.OutboxStatus_Pending,
						0,
						5,
						nil,
						fixedTime,
						fixedTime,
					).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		"database-error": {
			setExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(query).
					WithArgs(
						sqlmock.AnyArg(),
						domain.OutboxEntityType_ImportBatch,
						event.BatchID,
						domain.OutboxTopic_ImportBatches,
						domain.EventType_BATCH_UPLOADED,
						sqlmock.AnyArg(),
						domain.OutboxStatus_Pending,
						0,
						5,
						nil,
						fixedTime,
						fixedTime,
					).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			assert.NoError(t, err)
			defer db.Close() //nolint:errcheck

			tt.setExpectations(mock)

			repo := NewOutboxRepository(db)
			gotErr := repo.CreateBatchEvent(context.Background(), event)

			if tt.expectErr {
				assert.Error(t, gotErr)
			} else {
				assert.NoError(t, gotErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOutboxRepository_FetchPendingEvents(t *testing.T) {
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eventID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	batchID := uuid.MustParse("223e4567-e89b-12d3-a456-426614174000")

	query := "SELECT id, entity_type, entity_id, topic, event_type, payload, status, retry_count, max_retries, last_error, available_at, created_at FROM outbox_events WHERE status = $1 AND available_at <= now() ORDER BY created_at ASC LIMIT 100 FOR UPDATE SKIP LOCKED"

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close() //nolint:errcheck

	rows := sqlmock.NewRows(outboxEventFields).
		AddRow(
			eventID,
			domain.OutboxEntityType_ImportBatch,
			batchID,
			domain.OutboxTopic_ImportBatches,
			domain.EventType_BATCH_UPLOADED,
			[]byte(`{"Type":"IMPORT_BATCH.UPLOADED"}`),
			domain.OutboxStatus_Pending,
			1,
			5,
			nil,
			fixedTime,
			fixedTime,
		)
	mock.ExpectQuery(query).WithArgs(domain.OutboxStatus_Pending).WillReturnRows(rows)

	repo := NewOutboxRepository(db)
	got, err := repo.FetchPendingEvents(context.Background(), 100)

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, eventID, got[0].ID)
	assert.Equal(t, domain.EventType_BATCH_UPLOADED, got[0].EventType)
	assert.Equal(t, []byte(`{"Type":"IMPORT_BATCH.UPLOADED"}`), got[0].Payload)
	assert.Equal(t, 1, got[0].RetryCount)
	assert.Nil(t, got[0].LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateEvent(t *testing.T) {
	eventID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")

	query := "UPDATE outbox_events SET status = $1, retry_count = $2, last_error = $3 WHERE id = $4"

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectExec(query).
		WithArgs(domain.OutboxStatus_Failed, 5, "publish timeout", eventID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	assert.NoError(t, repo.UpdateEvent(context.Background(), eventID, domain.OutboxStatus_Failed, 5, "publish timeout"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_DeleteEvent(t *testing.T) {
	eventID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")

	query := "DELETE FROM outbox_events WHERE id = $1"

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectExec(query).
		WithArgs(eventID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	assert.NoError(t, repo.DeleteEvent(context.Background(), eventID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
