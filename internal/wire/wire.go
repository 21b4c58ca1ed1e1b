package wire

import (
	"net/http"

	"tour-booking/internal/adaptor"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/middleware"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services background workers need.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(repo *repository.Repository, provider payment.Provider, clk clock.Clock, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, provider, clk, config, logger)
	handler := adaptor.NewHandler(service, logger)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	wireSchedule(r, handler.Schedule, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wirePayment(r, handler.Payment, repo, logger)
	wireAdmin(r, handler.Admin, config, logger)

	if mock, ok := provider.(*payment.MockProvider); ok {
		wireDev(r, adaptor.NewDevPaymentHandler(mock, service.Payment, logger))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return &App{
		Router:  r,
		Service: service,
	}
}
