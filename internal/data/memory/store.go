// Package memory is an in-process implementation of the repository
// interfaces. It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"sync"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds every table in maps guarded by one RWMutex. Hold creation
// runs its capacity check and insert under the write lock.
type Store struct {
	mu        sync.RWMutex
	tours     map[uuid.UUID]*entity.Tour
	schedules map[uuid.UUID]*entity.Schedule
	bookings  map[uuid.UUID]*entity.Booking
	events    map[string]*entity.PaymentEvent
	sessions  map[string]*entity.Session

	log *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		tours:     make(map[uuid.UUID]*entity.Tour),
		schedules: make(map[uuid.UUID]*entity.Schedule),
		bookings:  make(map[uuid.UUID]*entity.Booking),
		events:    make(map[string]*entity.PaymentEvent),
		sessions:  make(map[string]*entity.Session),
		log:       log.With(zap.String("repository", "memory")),
	}
}

// NewRepository returns the store wired behind every repository interface.
func NewRepository(log *zap.Logger) (*repository.Repository, *Store) {
	s := NewStore(log)
	return s.Repository(), s
}

func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Session:      &sessionRepository{s},
		Tour:         &tourRepository{s},
		Schedule:     &scheduleRepository{s},
		Booking:      &bookingRepository{s},
		PaymentEvent: &paymentEventRepository{s},
	}
}

// AddSession registers a session issued elsewhere. Only the memory driver
// needs it; in Postgres the auth provider writes the sessions table.
func (s *Store) AddSession(session *entity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.Token.String()] = &cp
}

// reservedSeats must be called with s.mu held.
func (s *Store) reservedSeats(scheduleID uuid.UUID, now time.Time) int {
	reserved := 0
	for _, b := range s.bookings {
		if b.ScheduleID == scheduleID && b.ReservesSeats(now) {
			reserved += b.PartySize
		}
	}
	return reserved
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	cp := *b
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		cp.ExpiresAt = &t
	}
	if b.PaidAt != nil {
		t := *b.PaidAt
		cp.PaidAt = &t
	}
	if b.PaymentIntentID != nil {
		id := *b.PaymentIntentID
		cp.PaymentIntentID = &id
	}
	if b.Metadata != nil {
		cp.Metadata = make(map[string]string, len(b.Metadata))
		for k, v := range b.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
