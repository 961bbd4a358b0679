package adaptor

import (
	"net/http"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	owners  usecase.OwnerService
	loc     *time.Location
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, owners usecase.OwnerService, loc *time.Location, log *zap.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{
		service: service,
		owners:  owners,
		loc:     loc,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (bearer or guest)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Validasi dulu sebelum guest dibuat
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	owner, err := h.owners.ResolveBooker(r.Context(), userFromRequest(r), req.GuestEmail)
	if err != nil {
		handleServiceError(w, h.log, err, "resolve booker")
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), owner, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// GetBooking handles GET /api/bookings/{id} (owner)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	requester, err := identify(r, h.owners, "")
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), requester, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CancelBooking handles DELETE /api/bookings/{id} (owner)
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	requester, err := identify(r, h.owners, "")
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	if err := h.service.CancelBooking(r.Context(), requester, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", nil)
}

// ResendConfirmation handles POST /api/bookings/{id}/resend-confirmation (owner)
func (h *BookingHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	requester, err := identify(r, h.owners, "")
	if err != nil {
		handleServiceError(w, h.log, err, "resend confirmation")
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), requester, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "resend confirmation")
		return
	}

	utils.ResponseSuccess(w, "Confirmation sent", nil)
}

// GetHistory handles GET /api/user/bookings/history (protected)
func (h *BookingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.BookingHistoryRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}

	var err error
	if req.From, err = utils.ParseDate(query.Get("from"), h.loc); err != nil {
		utils.ResponseBadRequest(w, "Invalid 'from' date, use YYYY-MM-DD", nil)
		return
	}
	if req.To, err = utils.ParseDate(query.Get("to"), h.loc); err != nil {
		utils.ResponseBadRequest(w, "Invalid 'to' date, use YYYY-MM-DD", nil)
		return
	}

	if raw := query.Get("status"); raw != "" {
		status := entity.BookingStatus(raw)
		switch status {
		case entity.BookingStatusPending, entity.BookingStatusConfirmed, entity.BookingStatusCancelled:
			req.Status = &status
		default:
			utils.ResponseBadRequest(w, "Invalid status, use PENDING, CONFIRMED or CANCELLED", nil)
			return
		}
	}

	bookings, err := h.service.GetUserBookingHistory(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking history")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetUpcoming handles GET /api/user/bookings/upcoming (protected)
func (h *BookingHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.GetUpcomingBookings(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get upcoming bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetPast handles GET /api/user/bookings/past (protected)
func (h *BookingHandler) GetPast(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.GetPastBookings(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get past bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
