package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

// ClaimPending locks a batch of pending events with SKIP LOCKED and
// hands each one to handle. The fetch and the status updates share one
// transaction, so the row locks hold until commit and concurrent
// worker replicas never publish the same event. A handle error marks
// the event FAILED with the given retry delay; success marks it
// PROCESSED.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, retryDelay time.Duration, handle func(event *model.OutboxEvent) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var events []*model.OutboxEvent
		if err := tx.SelectContext(ctx, &events, `
			SELECT id, event_type, payload, status, error_message, retry_count, retry_at, created_at, processed_at
			FROM outbox_events
			WHERE status = $1 AND (retry_at IS NULL OR retry_at <= now())
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, model.OutboxStatusPending, limit); err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			if handleErr := handle(event); handleErr != nil {
				errMsg := handleErr.Error()
				if _, err := tx.ExecContext(ctx, `
					UPDATE outbox_events
					SET status = $1, error_message = $2, retry_at = $3, retry_count = retry_count + 1
					WHERE id = $4
				`, model.OutboxStatusFailed, errMsg, time.Now().Add(retryDelay), event.ID); err != nil {
					return fmt.Errorf("failed to mark event failed: %w", err)
				}
				continue
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE outbox_events
				SET status = $1, error_message = NULL, retry_at = NULL, processed_at = now()
				WHERE id = $2
			`, model.OutboxStatusProcessed, event.ID); err != nil {
				return fmt.Errorf("failed to mark event processed: %w", err)
			}
		}
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
