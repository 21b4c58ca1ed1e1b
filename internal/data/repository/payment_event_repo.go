package repository

import (
	"context"
	"fmt"

	"tour-booking/internal/data/entity"
	"tour-booking/pkg/database"

	"go.uber.org/zap"
)

type PaymentEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	// Record stores the event; false means it was already recorded.
	Record(ctx context.Context, event *entity.PaymentEvent) (bool, error)
}

type paymentEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentEventRepository(db database.PgxIface, log *zap.Logger) PaymentEventRepository {
	return &paymentEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_event")),
	}
}

func (r *paymentEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_events WHERE event_id = $1)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to look up payment event",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return false, fmt.Errorf("look up payment event %s: %w", eventID, err)
	}

	return exists, nil
}

func (r *paymentEventRepository) Record(ctx context.Context, event *entity.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO payment_events (event_id, type, intent_id, booking_id, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		event.EventID,
		event.Type,
		event.IntentID,
		event.BookingID,
		event.ReceivedAt,
	)
	if err != nil {
		r.log.Error("Failed to record payment event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type),
		)
		return false, fmt.Errorf("record payment event %s: %w", event.EventID, err)
	}

	return result.RowsAffected() == 1, nil
}
