package adaptor

import (
	"errors"
	"net/http"

	"tour-booking/internal/domain"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Schedule *ScheduleHandler
	Booking  *BookingHandler
	Payment  *PaymentHandler
	Admin    *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(service.Tour, service.Availability, log),
		Booking:  NewBookingHandler(service.Hold, log),
		Payment:  NewPaymentHandler(service.Payment, log),
		Admin:    NewAdminHandler(service.Sweep, service.Payment, log),
	}
}

// handleServiceError maps the domain error taxonomy onto HTTP statuses.
// Expected outcomes are logged at Warn or Info; anything else is a 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validation domain.ValidationError

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseError(w, http.StatusBadRequest, "validation_failed", validation.Error())

	case errors.Is(err, domain.ErrForbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "You do not have access to this resource")

	case domain.IsNotFound(err):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case domain.IsConflict(err):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseError(w, http.StatusConflict, conflictCode(err), err.Error())

	case errors.Is(err, domain.ErrHoldExpired):
		log.Info(operation+" failed - hold expired", zap.Error(err))
		utils.ResponseError(w, http.StatusGone, "hold_expired", err.Error())

	case errors.Is(err, domain.ErrPaymentNotVerified):
		log.Warn(operation+" failed - payment not verified", zap.Error(err))
		utils.ResponseError(w, http.StatusPaymentRequired, "payment_not_verified", err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientCapacity):
		return "insufficient_capacity"
	case errors.Is(err, domain.ErrScheduleInactive):
		return "schedule_inactive"
	default:
		return "invalid_state"
	}
}

// uuidParam reads a UUID path parameter, writing a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return userID, ok
}
