package storage

import (
	"context"

	"github.com/learnhub/seminarbook/libs/db"
	"github.com/learnhub/seminarbook/services/booking-service/internal/notify"
)

type AttemptRepository struct {
	pool *db.Pool
}

func NewAttemptRepository(pool *db.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) RecordAttempt(ctx context.Context, a notify.Attempt) error {
	var providerErr any
	if len(a.Error) > 0 {
		providerErr = string(a.Error)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_attempts
			(booking_id, channel, recipient, kind, success, provider_message_id, provider_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, a.BookingID, string(a.Channel), a.Recipient, a.Kind, a.Success, a.MessageID, providerErr)
	return err
}

var _ notify.Recorder = (*AttemptRepository)(nil)
