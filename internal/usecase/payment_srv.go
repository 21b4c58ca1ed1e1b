package usecase

import (
	"context"
	"errors"
	"fmt"
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

// PaymentService bridges holds to the payment provider. A booking is only
// confirmed after the provider itself reports the intent as succeeded, and
// only while the hold is still open.
type PaymentService interface {
	StartPayment(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.PaymentIntentResponse, error)
	ConfirmPayment(ctx context.Context, travelerID, bookingID uuid.UUID, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ListRefundRequired(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type paymentService struct {
	repo     *repository.Repository
	provider payment.Provider
	clock    clock.Clock
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, provider payment.Provider, clk clock.Clock, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		provider: provider,
		clock:    clk,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) StartPayment(ctx context.Context, travelerID, bookingID uuid.UUID) (*response.PaymentIntentResponse, error) {
	booking, err := findOwnedBooking(ctx, s.repo.Booking, travelerID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := checkPayable(booking, s.clock.Now()); err != nil {
		return nil, err
	}

	if booking.PaymentIntentID != nil {
		intent, err := s.provider.GetIntent(ctx, *booking.PaymentIntentID)
		switch {
		case errors.Is(err, payment.ErrIntentNotFound):
			s.log.Warn("Attached intent missing at provider, replacing",
				zap.String("booking_id", booking.ID.String()),
				zap.String("intent_id", *booking.PaymentIntentID),
			)
		case err != nil:
			return nil, fmt.Errorf("get payment intent: %w", err)
		default:
			reuse, err := s.resolveExisting(ctx, booking, intent)
			if err != nil {
				return nil, err
			}
			if reuse {
				return toIntentResponse(booking, intent), nil
			}
		}
	}

	return s.createAndAttach(ctx, booking)
}

// resolveExisting decides what to do with the intent already attached to
// booking. It reports true when the intent should be handed back as is.
func (s *paymentService) resolveExisting(ctx context.Context, booking *entity.Booking, intent *payment.Intent) (bool, error) {
	switch intent.Status {
	case payment.IntentProcessing:
		return true, nil

	case payment.IntentSucceeded:
		if _, err := s.reconcileSuccess(ctx, booking.ID, intent.ID); err != nil {
			return false, err
		}
		return false, fmt.Errorf("%w: booking already paid", domain.ErrInvalidState)

	case payment.IntentFailed:
		// Retire the failed intent before a replacement exists so there is
		// never more than one live intent per booking.
		if _, err := s.provider.CancelIntent(ctx, intent.ID); err != nil {
			if errors.Is(err, payment.ErrAlreadySucceeded) {
				if _, err := s.reconcileSuccess(ctx, booking.ID, intent.ID); err != nil {
					return false, err
				}
				return false, fmt.Errorf("%w: booking already paid", domain.ErrInvalidState)
			}
			return false, fmt.Errorf("cancel failed intent %s: %w", intent.ID, err)
		}
	}

	return false, nil
}

func (s *paymentService) createAndAttach(ctx context.Context, booking *entity.Booking) (*response.PaymentIntentResponse, error) {
	attempt := booking.PaymentAttempts + 1
	intent, err := s.provider.CreateIntent(ctx, payment.CreateIntentRequest{
		Amount:   booking.TotalAmount,
		Currency: booking.Currency,
		Metadata: map[string]string{
			"booking_id":  booking.ID.String(),
			"order_id":    booking.OrderID,
			"traveler_id": booking.TravelerID.String(),
		},
		IdempotencyKey: fmt.Sprintf("booking:%s:attempt:%d", booking.ID.String(), attempt),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	now := s.clock.Now()
	attached, err := s.repo.Booking.AttachPaymentIntent(ctx, booking.ID, booking.PaymentIntentID, intent.ID, now)
	if err != nil {
		s.cancelQuietly(ctx, intent.ID)
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}

	current, err := s.repo.Booking.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	if attached || current.HasIntent(intent.ID) {
		// The second case is a concurrent caller that got the same intent
		// back from the provider's idempotency key and attached it first.
		if attached {
			s.log.Info("Payment intent attached",
				zap.String("booking_id", booking.ID.String()),
				zap.String("intent_id", intent.ID),
				zap.Int("attempt", attempt),
			)
		}
		return toIntentResponse(current, intent), nil
	}

	// Lost the race to another intent or the hold ended meanwhile.
	s.cancelQuietly(ctx, intent.ID)

	if err := checkPayable(current, now); err != nil {
		return nil, err
	}
	if current.PaymentIntentID == nil {
		return nil, fmt.Errorf("%w: payment intent was not attached", domain.ErrInvalidState)
	}

	winner, err := s.provider.GetIntent(ctx, *current.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return toIntentResponse(current, winner), nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, travelerID, bookingID uuid.UUID, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error) {
	if req == nil || req.PaymentIntentID == "" {
		return nil, domain.ValidationError{Field: "payment_intent_id", Err: domain.ErrMissingRequiredField}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	booking, err := findOwnedBooking(ctx, s.repo.Booking, travelerID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusConfirmed && booking.HasIntent(req.PaymentIntentID) {
		resp := response.BookingToResponse(booking, s.clock.Now())
		return &resp, nil
	}
	if !booking.HasIntent(req.PaymentIntentID) {
		s.log.Warn("Confirmation with foreign intent",
			zap.String("booking_id", booking.ID.String()),
			zap.String("intent_id", req.PaymentIntentID),
		)
		return nil, fmt.Errorf("%w: intent does not belong to this booking", domain.ErrPaymentNotVerified)
	}

	intent, err := s.provider.GetIntent(ctx, req.PaymentIntentID)
	if errors.Is(err, payment.ErrIntentNotFound) {
		return nil, fmt.Errorf("%w: intent unknown to provider", domain.ErrPaymentNotVerified)
	}
	if err != nil {
		return nil, fmt.Errorf("verify payment intent: %w", err)
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		if intent.Amount != booking.TotalAmount || intent.Currency != booking.Currency {
			s.log.Error("Intent amount does not match booking",
				zap.String("booking_id", booking.ID.String()),
				zap.String("intent_id", intent.ID),
				zap.Int64("intent_amount", intent.Amount),
				zap.Int64("booking_amount", booking.TotalAmount),
			)
			return nil, fmt.Errorf("%w: amount mismatch", domain.ErrPaymentNotVerified)
		}

		confirmed, err := s.reconcileSuccess(ctx, booking.ID, intent.ID)
		if err != nil {
			return nil, err
		}
		resp := response.BookingToResponse(confirmed, s.clock.Now())
		return &resp, nil

	case payment.IntentFailed, payment.IntentCanceled:
		if _, err := s.repo.Booking.SetPaymentStatus(ctx, booking.ID, intent.ID, entity.PaymentStatus(intent.Status), s.clock.Now()); err != nil {
			return nil, fmt.Errorf("record payment status: %w", err)
		}
		return nil, fmt.Errorf("%w: payment %s", domain.ErrPaymentNotVerified, intent.Status)

	default:
		return nil, fmt.Errorf("%w: payment still processing", domain.ErrPaymentNotVerified)
	}
}

// reconcileSuccess applies a provider-verified success for intentID. The
// clock is read here, after verification, so the decision reflects when
// the server observed the payment. Expiry wins at or after expires_at.
func (s *paymentService) reconcileSuccess(ctx context.Context, bookingID uuid.UUID, intentID string) (*entity.Booking, error) {
	now := s.clock.Now()

	ok, err := s.repo.Booking.Confirm(ctx, bookingID, intentID, now)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}

	current, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if ok {
		s.log.Info("Booking confirmed",
			zap.String("booking_id", bookingID.String()),
			zap.String("order_id", current.OrderID),
			zap.String("intent_id", intentID),
		)
		return current, nil
	}

	switch {
	case current.Status == entity.BookingStatusConfirmed && current.HasIntent(intentID):
		return current, nil

	case !current.HasIntent(intentID):
		s.log.Error("Charged intent is not attached to its booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("intent_id", intentID),
		)
		return nil, fmt.Errorf("%w: intent is no longer attached", domain.ErrPaymentNotVerified)

	case current.Status == entity.BookingStatusPending:
		// Lapsed but not yet swept: expire it now so the refund flag sticks.
		if _, err := s.repo.Booking.MarkExpired(ctx, bookingID, now); err != nil {
			return nil, fmt.Errorf("expire lapsed hold: %w", err)
		}
	}

	if _, err := s.repo.Booking.FlagRefund(ctx, bookingID, intentID, now); err != nil {
		return nil, fmt.Errorf("flag refund: %w", err)
	}

	s.log.Warn("Payment arrived after the hold ended; refund required",
		zap.String("booking_id", bookingID.String()),
		zap.String("intent_id", intentID),
		zap.String("status", string(current.Status)),
	)

	if current.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking was cancelled, refund required", domain.ErrInvalidState)
	}
	return nil, fmt.Errorf("%w: refund required", domain.ErrHoldExpired)
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return domain.ValidationError{Field: "signature", Msg: "invalid webhook signature", Err: err}
	}

	seen, err := s.repo.PaymentEvent.Exists(ctx, event.ID)
	if err != nil {
		return err
	}
	if seen {
		s.log.Debug("Duplicate webhook ignored", zap.String("event_id", event.ID))
		return nil
	}

	record := &entity.PaymentEvent{
		EventID:    event.ID,
		Type:       string(event.Type),
		IntentID:   event.IntentID,
		ReceivedAt: s.clock.Now(),
	}

	switch event.Type {
	case payment.EventIntentSucceeded, payment.EventIntentFailed, payment.EventIntentCanceled:
		bookingID, err := uuid.Parse(event.BookingID)
		if err != nil {
			s.log.Warn("Webhook without booking reference",
				zap.String("event_id", event.ID),
				zap.String("intent_id", event.IntentID),
			)
			break
		}
		record.BookingID = &bookingID
		if err := s.applyEvent(ctx, bookingID, event); err != nil {
			return err
		}
	default:
		s.log.Debug("Webhook type ignored", zap.String("type", string(event.Type)))
	}

	if _, err := s.repo.PaymentEvent.Record(ctx, record); err != nil {
		return err
	}
	return nil
}

// applyEvent returns only infrastructure errors, so the provider retries
// the delivery. Booking outcomes are final and logged.
func (s *paymentService) applyEvent(ctx context.Context, bookingID uuid.UUID, event *payment.Event) error {
	if event.Type == payment.EventIntentSucceeded {
		_, err := s.reconcileSuccess(ctx, bookingID, event.IntentID)
		if err != nil && !domain.IsExpected(err) {
			return err
		}
		if err != nil {
			s.log.Warn("Webhook success not applied",
				zap.Error(err),
				zap.String("event_id", event.ID),
				zap.String("booking_id", bookingID.String()),
			)
		}
		return nil
	}

	status := entity.PaymentStatusFailed
	if event.Type == payment.EventIntentCanceled {
		status = entity.PaymentStatusCanceled
	}
	if _, err := s.repo.Booking.SetPaymentStatus(ctx, bookingID, event.IntentID, status, s.clock.Now()); err != nil {
		return err
	}
	return nil
}

func (s *paymentService) ListRefundRequired(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindRefundRequired(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list refund-required bookings: %w", err)
	}

	total, err := s.repo.Booking.CountRefundRequired(ctx)
	if err != nil {
		return nil, fmt.Errorf("count refund-required bookings: %w", err)
	}

	now := s.clock.Now()
	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b, now))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *paymentService) cancelQuietly(ctx context.Context, intentID string) {
	if _, err := s.provider.CancelIntent(ctx, intentID); err != nil {
		s.log.Warn("Failed to cancel surplus payment intent",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
	}
}

// checkPayable reports whether a payment may start on booking at now.
func checkPayable(booking *entity.Booking, now time.Time) error {
	switch booking.Status {
	case entity.BookingStatusConfirmed:
		return fmt.Errorf("%w: booking already paid", domain.ErrInvalidState)
	case entity.BookingStatusCancelled:
		return fmt.Errorf("%w: booking was cancelled", domain.ErrInvalidState)
	case entity.BookingStatusExpired:
		return domain.ErrHoldExpired
	}
	if !booking.HoldActive(now) {
		return domain.ErrHoldExpired
	}
	return nil
}

func toIntentResponse(booking *entity.Booking, intent *payment.Intent) *response.PaymentIntentResponse {
	return &response.PaymentIntentResponse{
		BookingID:       booking.ID.String(),
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		ExpiresAt:       *booking.ExpiresAt,
	}
}
