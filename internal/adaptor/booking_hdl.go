package adaptor

import (
	"encoding/json"
	"net/http"

	"tour-booking/internal/dto/request"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.HoldService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.HoldService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateHold handles POST /api/bookings/holds (protected)
func (h *BookingHandler) CreateHold(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	hold, err := h.service.CreateHold(r.Context(), travelerID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create hold")
		return
	}

	utils.ResponseCreated(w, "Seats held", hold)
}

// GetBooking handles GET /api/bookings/{id} (protected, owner)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(w, r, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(r.Context(), travelerID, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CancelHold handles POST /api/bookings/{id}/cancel (protected, owner)
func (h *BookingHandler) CancelHold(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(w, r, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.service.CancelHold(r.Context(), travelerID, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel hold")
		return
	}

	utils.ResponseSuccess(w, "Hold cancelled", booking)
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.ListTravelerBookings(r.Context(), travelerID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
