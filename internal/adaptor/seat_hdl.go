package adaptor

import (
	"net/http"

	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewSeatHandler(service usecase.SeatService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// GetSeats handles GET /api/showtimes/{showtimeId}/seats (public)
func (h *SeatHandler) GetSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.GetSeats(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		handleServiceError(w, h.log, err, "get seats")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}

// SelectSeats handles POST /api/seats/select (public)
func (h *SeatHandler) SelectSeats(w http.ResponseWriter, r *http.Request) {
	var req request.SelectSeatsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seats, err := h.service.SelectSeats(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "select seats")
		return
	}

	utils.ResponseSuccess(w, "Seats held", seats)
}

// CreateInventory handles POST /api/admin/showtimes/{showtimeId}/seats (admin)
func (h *SeatHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req request.CreateInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seats, err := h.service.CreateInventory(r.Context(), chi.URLParam(r, "showtimeId"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create seat inventory")
		return
	}

	utils.ResponseCreated(w, "Seat inventory created", seats)
}

// ReleaseShowtime handles POST /api/admin/showtimes/{showtimeId}/release (admin)
func (h *SeatHandler) ReleaseShowtime(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ReleaseShowtime(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		handleServiceError(w, h.log, err, "release expired holds")
		return
	}

	utils.ResponseSuccess(w, "success", resp)
}
