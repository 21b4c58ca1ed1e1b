package usecase

import (
	"context"
	"fmt"
	"strings"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/domain"
	"tour-booking/internal/dto/request"
	"tour-booking/internal/dto/response"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TourService manages the catalog side: tours and their dated schedules.
// Only a tour's owner may add or disable its schedules.
type TourService interface {
	CreateTour(ctx context.Context, ownerID uuid.UUID, req *request.CreateTourRequest) (*response.TourResponse, error)
	GetTour(ctx context.Context, tourID uuid.UUID) (*response.TourResponse, error)
	CreateSchedule(ctx context.Context, ownerID, tourID uuid.UUID, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error)
	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*response.ScheduleResponse, error)
	ListTourSchedules(ctx context.Context, tourID uuid.UUID) ([]response.ScheduleResponse, error)
	DisableSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) (*response.ScheduleResponse, error)
}

type tourService struct {
	repo  *repository.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewTourService(repo *repository.Repository, clk clock.Clock, log *zap.Logger) TourService {
	return &tourService{
		repo:  repo,
		clock: clk,
		log:   log.With(zap.String("service", "tour")),
	}
}

func (s *tourService) CreateTour(ctx context.Context, ownerID uuid.UUID, req *request.CreateTourRequest) (*response.TourResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create tour validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	now := s.clock.Now()
	tour := &entity.Tour{
		Base:         entity.NewBase(now),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Currency:     strings.ToLower(req.Currency),
		PricePerSeat: req.PricePerSeat,
	}

	if err := s.repo.Tour.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	s.log.Info("Tour created", zap.String("tour_id", tour.ID.String()), zap.String("owner_id", ownerID.String()))

	resp := response.TourToResponse(tour)
	return &resp, nil
}

func (s *tourService) GetTour(ctx context.Context, tourID uuid.UUID) (*response.TourResponse, error) {
	tour, err := s.repo.Tour.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	resp := response.TourToResponse(tour)
	return &resp, nil
}

func (s *tourService) CreateSchedule(ctx context.Context, ownerID, tourID uuid.UUID, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error) {
	if req != nil && req.Capacity < 1 {
		return nil, domain.ValidationError{Field: "capacity", Msg: "capacity must be at least 1"}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create schedule validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	if _, err := s.ownedTour(ctx, ownerID, tourID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	schedule := &entity.Schedule{
		Base:     entity.NewBase(now),
		TourID:   tourID,
		StartsAt: req.StartsAt.UTC(),
		EndsAt:   req.EndsAt.UTC(),
		Capacity: req.Capacity,
		Status:   entity.ScheduleStatusActive,
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.log.Info("Schedule created",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("tour_id", tourID.String()),
		zap.Int("capacity", schedule.Capacity),
	)

	resp := response.ScheduleToResponse(schedule, 0)
	return &resp, nil
}

func (s *tourService) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*response.ScheduleResponse, error) {
	schedule, reserved, err := s.repo.Schedule.FindWithReservedSeats(ctx, scheduleID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	resp := response.ScheduleToResponse(schedule, reserved)
	return &resp, nil
}

func (s *tourService) ListTourSchedules(ctx context.Context, tourID uuid.UUID) ([]response.ScheduleResponse, error) {
	if _, err := s.repo.Tour.FindByID(ctx, tourID); err != nil {
		return nil, err
	}

	schedules, err := s.repo.Schedule.FindByTourID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	now := s.clock.Now()
	out := make([]response.ScheduleResponse, len(schedules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, schedule := range schedules {
		g.Go(func() error {
			_, reserved, err := s.repo.Schedule.FindWithReservedSeats(gctx, schedule.ID, now)
			if err != nil {
				return err
			}
			out[i] = response.ScheduleToResponse(schedule, reserved)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count reserved seats: %w", err)
	}

	return out, nil
}

// DisableSchedule stops new holds on a schedule. Existing holds keep
// their seats until they are paid, cancelled or expire.
func (s *tourService) DisableSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) (*response.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTour(ctx, ownerID, schedule.TourID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.Schedule.UpdateStatus(ctx, scheduleID, entity.ScheduleStatusCancelled, now); err != nil {
		return nil, err
	}

	s.log.Info("Schedule disabled", zap.String("schedule_id", scheduleID.String()))

	return s.GetSchedule(ctx, scheduleID)
}

func (s *tourService) ownedTour(ctx context.Context, ownerID, tourID uuid.UUID) (*entity.Tour, error) {
	tour, err := s.repo.Tour.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return tour, nil
}
