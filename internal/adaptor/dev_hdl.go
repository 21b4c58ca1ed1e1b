package adaptor

import (
	"errors"
	"net/http"

	"tour-booking/internal/usecase"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DevPaymentHandler lets a local client play the customer's part against
// the mock provider: it settles an intent and delivers the signed webhook
// the real provider would send.
type DevPaymentHandler struct {
	mock     *payment.MockProvider
	payments usecase.PaymentService
	log      *zap.Logger
}

func NewDevPaymentHandler(mock *payment.MockProvider, payments usecase.PaymentService, log *zap.Logger) *DevPaymentHandler {
	return &DevPaymentHandler{
		mock:     mock,
		payments: payments,
		log:      log.With(zap.String("handler", "dev_payment")),
	}
}

var devOutcomes = map[string]payment.IntentStatus{
	"succeed": payment.IntentSucceeded,
	"fail":    payment.IntentFailed,
	"cancel":  payment.IntentCanceled,
}

// SettleIntent handles POST /api/dev/payments/{intent}/{outcome}
func (h *DevPaymentHandler) SettleIntent(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intent")
	status, ok := devOutcomes[chi.URLParam(r, "outcome")]
	if !ok {
		utils.ResponseBadRequest(w, "Outcome must be one of: succeed, fail, cancel", nil)
		return
	}

	intent, err := h.mock.SetStatus(intentID, status)
	if errors.Is(err, payment.ErrIntentNotFound) {
		utils.ResponseNotFound(w, err.Error())
		return
	}
	if err != nil {
		handleServiceError(w, h.log, err, "settle intent")
		return
	}

	payload, signature, err := h.mock.BuildWebhook("evt_mock_"+uuid.NewString(), intent.ID)
	if err != nil {
		handleServiceError(w, h.log, err, "build webhook")
		return
	}
	if err := h.payments.HandleWebhook(r.Context(), payload, signature); err != nil {
		handleServiceError(w, h.log, err, "deliver webhook")
		return
	}

	utils.ResponseSuccess(w, "Intent settled", map[string]string{
		"payment_intent_id": intent.ID,
		"status":            string(intent.Status),
	})
}
