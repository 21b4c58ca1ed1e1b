package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"
	"tour-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository stores bookings. Every lifecycle transition is a single
// conditional UPDATE; a false result means another writer resolved the
// booking first and is not an error.
type BookingRepository interface {
	// CreateHold inserts a pending booking iff the schedule is active and
	// has room for booking.PartySize at booking.CreatedAt. The capacity
	// check and the insert are one atomic step per schedule.
	CreateHold(ctx context.Context, booking *entity.Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByTravelerID(ctx context.Context, travelerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByTravelerID(ctx context.Context, travelerID uuid.UUID) (int64, error)
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	FindRefundRequired(ctx context.Context, limit, offset int) ([]*entity.Booking, error)
	CountRefundRequired(ctx context.Context) (int64, error)

	// MarkExpired moves pending -> expired when expires_at <= now.
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// Cancel moves pending -> cancelled.
	Cancel(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// Confirm moves pending -> confirmed when intentID is the attached
	// intent and the hold is still open at paidAt.
	Confirm(ctx context.Context, id uuid.UUID, intentID string, paidAt time.Time) (bool, error)
	// AttachPaymentIntent swaps the attached intent from prevIntentID to
	// intentID while the hold is open at now. prevIntentID nil means none.
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, prevIntentID *string, intentID string, now time.Time) (bool, error)
	// SetPaymentStatus records a non-terminal provider outcome on a pending booking.
	SetPaymentStatus(ctx context.Context, id uuid.UUID, intentID string, status entity.PaymentStatus, now time.Time) (bool, error)
	// FlagRefund marks an expired or cancelled booking whose intent was charged anyway.
	FlagRefund(ctx context.Context, id uuid.UUID, intentID string, now time.Time) (bool, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_id, schedule_id, traveler_id, party_size, total_amount, currency, status,
	expires_at, payment_intent_id, payment_status, payment_attempts, paid_at, metadata, created_at, updated_at`

func (r *bookingRepository) CreateHold(ctx context.Context, booking *entity.Booking) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin hold transaction",
			zap.Error(err),
			zap.String("schedule_id", booking.ScheduleID.String()),
		)
		return fmt.Errorf("begin hold transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// The row lock serializes holds per schedule; holds on other schedules
	// and plain reads never wait on it.
	var capacity int
	var status entity.ScheduleStatus
	err = tx.QueryRow(ctx,
		`SELECT capacity, status FROM schedules WHERE id = $1 FOR UPDATE`,
		booking.ScheduleID,
	).Scan(&capacity, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrScheduleNotFound
	}
	if err != nil {
		r.log.Error("Failed to lock schedule",
			zap.Error(err),
			zap.String("schedule_id", booking.ScheduleID.String()),
		)
		return fmt.Errorf("lock schedule %s: %w", booking.ScheduleID.String(), err)
	}

	if status != entity.ScheduleStatusActive {
		return domain.ErrScheduleInactive
	}

	var reserved int
	if err = tx.QueryRow(ctx, reservedSeatsQuery, booking.ScheduleID, booking.CreatedAt).Scan(&reserved); err != nil {
		r.log.Error("Failed to sum reserved seats",
			zap.Error(err),
			zap.String("schedule_id", booking.ScheduleID.String()),
		)
		return fmt.Errorf("sum reserved seats for schedule %s: %w", booking.ScheduleID.String(), err)
	}

	if reserved+booking.PartySize > capacity {
		return fmt.Errorf("%w: requested %d, %d left", domain.ErrInsufficientCapacity,
			booking.PartySize, max(capacity-reserved, 0))
	}

	metadata, err := json.Marshal(booking.Metadata)
	if err != nil {
		return fmt.Errorf("encode booking metadata: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, order_id, schedule_id, traveler_id, party_size, total_amount, currency, status,
		                      expires_at, payment_status, payment_attempts, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		booking.ID,
		booking.OrderID,
		booking.ScheduleID,
		booking.TravelerID,
		booking.PartySize,
		booking.TotalAmount,
		booking.Currency,
		booking.Status,
		booking.ExpiresAt,
		booking.PaymentStatus,
		booking.PaymentAttempts,
		metadata,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert hold",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("traveler_id", booking.TravelerID.String()),
		)
		return fmt.Errorf("insert hold %s: %w", booking.OrderID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit hold",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
		)
		return fmt.Errorf("commit hold %s: %w", booking.OrderID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByTravelerID(ctx context.Context, travelerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE traveler_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, travelerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by traveler ID",
			zap.Error(err),
			zap.String("traveler_id", travelerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by traveler ID %s: %w", travelerID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByTravelerID(ctx context.Context, travelerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE traveler_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, travelerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by traveler ID",
			zap.Error(err),
			zap.String("traveler_id", travelerID.String()),
		)
		return 0, fmt.Errorf("count bookings by traveler ID %s: %w", travelerID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired holds", zap.Error(err), zap.Time("now", now))
		return nil, fmt.Errorf("find expired holds: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) FindRefundRequired(ctx context.Context, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE payment_status = 'refund_required'
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find refund-required bookings", zap.Error(err))
		return nil, fmt.Errorf("find refund-required bookings: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountRefundRequired(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE payment_status = 'refund_required'`).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count refund-required bookings", zap.Error(err))
		return 0, fmt.Errorf("count refund-required bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'expired', updated_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at <= $2
	`
	return r.transition(ctx, "expire", id, query, id, now)
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`
	return r.transition(ctx, "cancel", id, query, id, now)
}

func (r *bookingRepository) Confirm(ctx context.Context, id uuid.UUID, intentID string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'succeeded', paid_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND payment_intent_id = $2 AND expires_at > $3
	`
	return r.transition(ctx, "confirm", id, query, id, intentID, paidAt)
}

func (r *bookingRepository) AttachPaymentIntent(ctx context.Context, id uuid.UUID, prevIntentID *string, intentID string, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_intent_id = $3, payment_status = 'processing',
		    payment_attempts = payment_attempts + 1, updated_at = $4
		WHERE id = $1 AND status = 'pending' AND expires_at > $4
		  AND payment_intent_id IS NOT DISTINCT FROM $2
	`
	return r.transition(ctx, "attach payment intent", id, query, id, prevIntentID, intentID, now)
}

func (r *bookingRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, intentID string, status entity.PaymentStatus, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending' AND payment_intent_id = $2
	`
	return r.transition(ctx, "set payment status", id, query, id, intentID, status, now)
}

func (r *bookingRepository) FlagRefund(ctx context.Context, id uuid.UUID, intentID string, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = 'refund_required', updated_at = $3
		WHERE id = $1 AND payment_intent_id = $2
		  AND status IN ('expired', 'cancelled')
		  AND payment_status <> 'refund_required'
	`
	return r.transition(ctx, "flag refund", id, query, id, intentID, now)
}

func (r *bookingRepository) transition(ctx context.Context, op string, id uuid.UUID, query string, args ...any) (bool, error) {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("%s booking %s: %w", op, id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	var metadata []byte
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.ScheduleID,
		&booking.TravelerID,
		&booking.PartySize,
		&booking.TotalAmount,
		&booking.Currency,
		&booking.Status,
		&booking.ExpiresAt,
		&booking.PaymentIntentID,
		&booking.PaymentStatus,
		&booking.PaymentAttempts,
		&booking.PaidAt,
		&metadata,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &booking.Metadata); err != nil {
			return nil, fmt.Errorf("decode booking metadata: %w", err)
		}
	}

	return &booking, nil
}
