package wire

import (
	"tour-booking/internal/adaptor"
	"tour-booking/internal/data/repository"
	"tour-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(r chi.Router, h *adaptor.BookingHandler, repo *repository.Repository, log *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/bookings/holds", h.CreateHold)
		r.Get("/api/bookings/{id}", h.GetBooking)
		r.Post("/api/bookings/{id}/cancel", h.CancelHold)

		r.Get("/api/user/bookings", h.GetUserBookings)
	})
}
