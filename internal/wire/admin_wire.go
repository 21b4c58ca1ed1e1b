package wire

import (
	"tour-booking/internal/adaptor"
	"tour-booking/pkg/middleware"
	"tour-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(r chi.Router, h *adaptor.AdminHandler, config *utils.Config, log *zap.Logger) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Operator(config.Operator.KeyHash, log))

		r.Post("/sweeps", h.RunSweep)
		r.Get("/bookings/refunds", h.ListRefunds)
	})
}

// wireDev is only mounted when the mock payment provider is active.
func wireDev(r chi.Router, h *adaptor.DevPaymentHandler) {
	r.Post("/api/dev/payments/{intent}/{outcome}", h.SettleIntent)
}
