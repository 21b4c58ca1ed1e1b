package usecase

import (
	"context"
	"fmt"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/domain"
	"tour-booking/internal/dto/response"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService answers how many seats a schedule can still hold.
// The answer is advisory; CreateHold rechecks under the schedule lock.
type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, scheduleID uuid.UUID) (*response.AvailabilityResponse, error)
}

type availabilityService struct {
	repo       *repository.Repository
	clock      clock.Clock
	maxRetries int
	log        *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, clk clock.Clock, maxRetries int, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo:       repo,
		clock:      clk,
		maxRetries: maxRetries,
		log:        log.With(zap.String("service", "availability")),
	}
}

type seatSnapshot struct {
	schedule *entity.Schedule
	reserved int
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, scheduleID uuid.UUID) (*response.AvailabilityResponse, error) {
	snap, err := utils.Retry(ctx, s.maxRetries, domain.IsNotFound, func() (seatSnapshot, error) {
		schedule, reserved, err := s.repo.Schedule.FindWithReservedSeats(ctx, scheduleID, s.clock.Now())
		return seatSnapshot{schedule: schedule, reserved: reserved}, err
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		s.log.Error("Failed to read availability",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
		)
		return nil, fmt.Errorf("read availability for schedule %s: %w", scheduleID.String(), err)
	}

	available := response.AvailableSlots(snap.schedule.Capacity, snap.reserved)
	if snap.schedule.Status != entity.ScheduleStatusActive {
		available = 0
	}

	return &response.AvailabilityResponse{
		ScheduleID:     scheduleID.String(),
		AvailableSlots: available,
	}, nil
}
