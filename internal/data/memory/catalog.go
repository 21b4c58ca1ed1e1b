package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"

	"github.com/google/uuid"
)

type tourRepository struct{ s *Store }

func (r *tourRepository) Create(_ context.Context, tour *entity.Tour) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tours[tour.ID]; ok {
		return fmt.Errorf("create tour %s: duplicate id", tour.ID.String())
	}
	cp := *tour
	r.s.tours[tour.ID] = &cp
	return nil
}

func (r *tourRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Tour, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tour, ok := r.s.tours[id]
	if !ok {
		return nil, domain.ErrTourNotFound
	}
	cp := *tour
	return &cp, nil
}

type scheduleRepository struct{ s *Store }

func (r *scheduleRepository) Create(_ context.Context, schedule *entity.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tours[schedule.TourID]; !ok {
		return domain.ErrTourNotFound
	}
	if _, ok := r.s.schedules[schedule.ID]; ok {
		return fmt.Errorf("create schedule %s: duplicate id", schedule.ID.String())
	}
	cp := *schedule
	r.s.schedules[schedule.ID] = &cp
	return nil
}

func (r *scheduleRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	cp := *schedule
	return &cp, nil
}

func (r *scheduleRepository) FindByTourID(_ context.Context, tourID uuid.UUID) ([]*entity.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var schedules []*entity.Schedule
	for _, schedule := range r.s.schedules {
		if schedule.TourID == tourID {
			cp := *schedule
			schedules = append(schedules, &cp)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].StartsAt.Before(schedules[j].StartsAt)
	})
	return schedules, nil
}

func (r *scheduleRepository) UpdateStatus(_ context.Context, id uuid.UUID, status entity.ScheduleStatus, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	schedule.Status = status
	schedule.UpdatedAt = now
	return nil
}

func (r *scheduleRepository) FindWithReservedSeats(_ context.Context, id uuid.UUID, now time.Time) (*entity.Schedule, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	schedule, ok := r.s.schedules[id]
	if !ok {
		return nil, 0, domain.ErrScheduleNotFound
	}
	cp := *schedule
	return &cp, r.s.reservedSeats(id, now), nil
}

type sessionRepository struct{ s *Store }

func (r *sessionRepository) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[token]
	if !ok || !session.Valid(time.Now()) {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

type paymentEventRepository struct{ s *Store }

func (r *paymentEventRepository) Exists(_ context.Context, eventID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.events[eventID]
	return ok, nil
}

func (r *paymentEventRepository) Record(_ context.Context, event *entity.PaymentEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[event.EventID]; ok {
		return false, nil
	}
	cp := *event
	r.s.events[event.EventID] = &cp
	return true, nil
}
