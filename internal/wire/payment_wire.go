package wire

import (
	"tour-booking/internal/adaptor"
	"tour-booking/internal/data/repository"
	"tour-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, h *adaptor.PaymentHandler, repo *repository.Repository, log *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/bookings/{id}/payment", h.StartPayment)
		r.Post("/api/bookings/{id}/payment/confirm", h.ConfirmPayment)
	})

	// Authenticated by the provider signature, not a session.
	r.Post("/api/webhooks/payments", h.Webhook)
}
