package adaptor

import (
	"net/http"

	"tour-booking/internal/dto/request"
	"tour-booking/internal/dto/response"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/utils"

	"go.uber.org/zap"
)

// AdminHandler serves operator maintenance endpoints.
type AdminHandler struct {
	sweep    usecase.SweepService
	payments usecase.PaymentService
	log      *zap.Logger
}

func NewAdminHandler(sweep usecase.SweepService, payments usecase.PaymentService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		sweep:    sweep,
		payments: payments,
		log:      log.With(zap.String("handler", "admin")),
	}
}

// RunSweep handles POST /api/admin/sweeps (operator)
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	expired, err := h.sweep.SweepExpired(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "run sweep")
		return
	}

	utils.ResponseSuccess(w, "Sweep finished", response.SweepResponse{Expired: expired})
}

// ListRefunds handles GET /api/admin/bookings/refunds (operator)
func (h *AdminHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 20),
	}

	bookings, err := h.payments.ListRefundRequired(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list refunds")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
