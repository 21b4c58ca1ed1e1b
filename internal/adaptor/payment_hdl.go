package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"tour-booking/internal/dto/request"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// StartPayment handles POST /api/bookings/{id}/payment (protected, owner)
func (h *PaymentHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(w, r, "id", "booking")
	if !ok {
		return
	}

	intent, err := h.service.StartPayment(r.Context(), travelerID, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "start payment")
		return
	}

	utils.ResponseSuccess(w, "success", intent)
}

// ConfirmPayment handles POST /api/bookings/{id}/payment/confirm (protected, owner)
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(w, r, "id", "booking")
	if !ok {
		return
	}

	var req request.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.ConfirmPayment(r.Context(), travelerID, bookingID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm payment")
		return
	}

	utils.ResponseSuccess(w, "Booking confirmed", booking)
}

// Webhook handles POST /api/webhooks/payments (provider signed)
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(payment.SignatureHeader)); err != nil {
		handleServiceError(w, h.log, err, "handle webhook")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}
