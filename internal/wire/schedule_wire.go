package wire

import (
	"tour-booking/internal/adaptor"
	"tour-booking/internal/data/repository"
	"tour-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSchedule(r chi.Router, h *adaptor.ScheduleHandler, repo *repository.Repository, log *zap.Logger) {
	// public catalog reads
	r.Get("/api/tours/{id}", h.GetTour)
	r.Get("/api/tours/{id}/schedules", h.ListTourSchedules)
	r.Get("/api/schedules/{id}", h.GetSchedule)
	r.Get("/api/schedules/{id}/availability", h.GetAvailability)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/tours", h.CreateTour)
		r.Post("/api/tours/{id}/schedules", h.CreateSchedule)
		r.Put("/api/schedules/{id}/disable", h.DisableSchedule)
	})
}
