package adaptor

import (
	"encoding/json"
	"net/http"

	"tour-booking/internal/dto/request"
	"tour-booking/internal/usecase"
	"tour-booking/pkg/utils"

	"go.uber.org/zap"
)

type ScheduleHandler struct {
	tours        usecase.TourService
	availability usecase.AvailabilityService
	log          *zap.Logger
}

func NewScheduleHandler(tours usecase.TourService, availability usecase.AvailabilityService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		tours:        tours,
		availability: availability,
		log:          log.With(zap.String("handler", "schedule")),
	}
}

// GetAvailability handles GET /api/schedules/{id}/availability (public)
func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := uuidParam(w, r, "id", "schedule")
	if !ok {
		return
	}

	availability, err := h.availability.GetAvailableSlots(r.Context(), scheduleID)
	if err != nil {
		handleServiceError(w, h.log, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// GetSchedule handles GET /api/schedules/{id} (public)
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := uuidParam(w, r, "id", "schedule")
	if !ok {
		return
	}

	schedule, err := h.tours.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		handleServiceError(w, h.log, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// GetTour handles GET /api/tours/{id} (public)
func (h *ScheduleHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	tourID, ok := uuidParam(w, r, "id", "tour")
	if !ok {
		return
	}

	tour, err := h.tours.GetTour(r.Context(), tourID)
	if err != nil {
		handleServiceError(w, h.log, err, "get tour")
		return
	}

	utils.ResponseSuccess(w, "success", tour)
}

// ListTourSchedules handles GET /api/tours/{id}/schedules (public)
func (h *ScheduleHandler) ListTourSchedules(w http.ResponseWriter, r *http.Request) {
	tourID, ok := uuidParam(w, r, "id", "tour")
	if !ok {
		return
	}

	schedules, err := h.tours.ListTourSchedules(r.Context(), tourID)
	if err != nil {
		handleServiceError(w, h.log, err, "list tour schedules")
		return
	}

	utils.ResponseSuccess(w, "success", schedules)
}

// CreateTour handles POST /api/tours (protected)
func (h *ScheduleHandler) CreateTour(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	tour, err := h.tours.CreateTour(r.Context(), ownerID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create tour")
		return
	}

	utils.ResponseCreated(w, "Tour created", tour)
}

// CreateSchedule handles POST /api/tours/{id}/schedules (protected, tour owner)
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tourID, ok := uuidParam(w, r, "id", "tour")
	if !ok {
		return
	}

	var req request.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.tours.CreateSchedule(r.Context(), ownerID, tourID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create schedule")
		return
	}

	utils.ResponseCreated(w, "Schedule created", schedule)
}

// DisableSchedule handles PUT /api/schedules/{id}/disable (protected, tour owner)
func (h *ScheduleHandler) DisableSchedule(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	scheduleID, ok := uuidParam(w, r, "id", "schedule")
	if !ok {
		return
	}

	schedule, err := h.tours.DisableSchedule(r.Context(), ownerID, scheduleID)
	if err != nil {
		handleServiceError(w, h.log, err, "disable schedule")
		return
	}

	utils.ResponseSuccess(w, "Schedule disabled", schedule)
}
