package repository

import (
	"tour-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Session      SessionRepository
	Tour         TourRepository
	Schedule     ScheduleRepository
	Booking      BookingRepository
	PaymentEvent PaymentEventRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Session:      NewSessionRepository(db, log),
		Tour:         NewTourRepository(db, log),
		Schedule:     NewScheduleRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		PaymentEvent: NewPaymentEventRepository(db, log),
	}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// reservedSeatsQuery sums seats held by confirmed bookings and by pending
// holds that have not lapsed at $2. Lapsed holds stop counting the moment
// they expire, whether or not the sweeper has visited them yet.
const reservedSeatsQuery = `
	SELECT COALESCE(SUM(party_size), 0)
	FROM bookings
	WHERE schedule_id = $1
	  AND (status = 'confirmed' OR (status = 'pending' AND expires_at > $2))
`
