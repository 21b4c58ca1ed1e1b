package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/domain"
	"tour-booking/internal/dto/request"
	"tour-booking/internal/dto/response"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HoldService interface {
	CreateHold(ctx context.Context, travelerID uuid.UUID, req *request.CreateHoldRequest) (*response.HoldResponse, error)
	GetBooking(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.BookingResponse, error)
	ListTravelerBookings(ctx context.Context, travelerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelHold(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.BookingResponse, error)
}

type holdService struct {
	repo         *repository.Repository
	clock        clock.Clock
	holdDuration time.Duration
	releaser     intentReleaser
	log          *zap.Logger
}

func NewHoldService(repo *repository.Repository, provider payment.Provider, clk clock.Clock, holdDuration time.Duration, log *zap.Logger) HoldService {
	log = log.With(zap.String("service", "hold"))
	return &holdService{
		repo:         repo,
		clock:        clk,
		holdDuration: holdDuration,
		releaser:     intentReleaser{repo: repo.Booking, provider: provider, log: log},
		log:          log,
	}
}

func (s *holdService) CreateHold(ctx context.Context, travelerID uuid.UUID, req *request.CreateHoldRequest) (*response.HoldResponse, error) {
	if req == nil || req.ScheduleID == "" {
		return nil, domain.ValidationError{Field: "schedule_id", Err: domain.ErrMissingRequiredField}
	}
	if req.PartySize < 1 {
		return nil, domain.ValidationError{Field: "party_size", Err: domain.ErrInvalidPartySize}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create hold validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, domain.ValidationError{Field: "schedule_id", Msg: "must be a valid UUID"}
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != entity.ScheduleStatusActive {
		return nil, domain.ErrScheduleInactive
	}

	tour, err := s.repo.Tour.FindByID(ctx, schedule.TourID)
	if err != nil {
		return nil, fmt.Errorf("load tour for schedule %s: %w", scheduleID.String(), err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.holdDuration)

	metadata := make(map[string]string, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["tour_name"] = tour.Name
	metadata["starts_at"] = schedule.StartsAt.UTC().Format(time.RFC3339)
	metadata["guest_count"] = strconv.Itoa(req.PartySize)

	booking := &entity.Booking{
		Base:          entity.NewBase(now),
		OrderID:       utils.GenerateOrderID(now),
		ScheduleID:    scheduleID,
		TravelerID:    travelerID,
		PartySize:     req.PartySize,
		TotalAmount:   tour.PricePerSeat * int64(req.PartySize),
		Currency:      tour.Currency,
		Status:        entity.BookingStatusPending,
		ExpiresAt:     &expiresAt,
		PaymentStatus: entity.PaymentStatusNone,
		Metadata:      metadata,
	}

	if err := s.repo.Booking.CreateHold(ctx, booking); err != nil {
		if domain.IsExpected(err) {
			s.log.Warn("Hold refused",
				zap.Error(err),
				zap.String("schedule_id", scheduleID.String()),
				zap.Int("party_size", req.PartySize),
			)
			return nil, err
		}
		return nil, fmt.Errorf("create hold: %w", err)
	}

	s.log.Info("Hold created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("schedule_id", scheduleID.String()),
		zap.Int("party_size", booking.PartySize),
		zap.Time("expires_at", expiresAt),
	)

	resp := response.HoldToResponse(booking)
	return &resp, nil
}

func (s *holdService) GetBooking(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := findOwnedBooking(ctx, s.repo.Booking, travelerID, bookingID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking, s.clock.Now())
	return &resp, nil
}

func (s *holdService) ListTravelerBookings(ctx context.Context, travelerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByTravelerID(ctx, travelerID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByTravelerID(ctx, travelerID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	now := s.clock.Now()
	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b, now))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

// CancelHold releases a pending hold at the traveler's request. A hold
// that has already lapsed is expired instead and reported as such.
func (s *holdService) CancelHold(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := findOwnedBooking(ctx, s.repo.Booking, travelerID, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	switch {
	case booking.Status == entity.BookingStatusExpired:
		return nil, domain.ErrHoldExpired
	case booking.Status != entity.BookingStatusPending:
		return nil, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, booking.Status)
	case !booking.HoldActive(now):
		ok, err := s.repo.Booking.MarkExpired(ctx, booking.ID, now)
		if err != nil {
			s.log.Error("Failed to expire lapsed hold on cancel",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
			return nil, domain.ErrHoldExpired
		}
		if ok {
			s.releaser.release(ctx, booking, now)
		}
		return nil, domain.ErrHoldExpired
	}

	ok, err := s.repo.Booking.Cancel(ctx, booking.ID, now)
	if err != nil {
		return nil, fmt.Errorf("cancel hold: %w", err)
	}
	if !ok {
		current, err := s.repo.Booking.FindByID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == entity.BookingStatusExpired {
			return nil, domain.ErrHoldExpired
		}
		return nil, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, current.Status)
	}

	// Re-read so an intent attached after the first read is released too.
	cancelled, err := s.repo.Booking.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.releaser.release(ctx, cancelled, now)
	s.log.Info("Hold cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("schedule_id", booking.ScheduleID.String()),
	)

	updated, err := s.repo.Booking.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(updated, now)
	return &resp, nil
}
