package adaptor

import (
	"net/http"

	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	owners  usecase.OwnerService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, owners usecase.OwnerService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		owners:  owners,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePayment handles POST /api/payments (bearer or guest)
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	requester, err := identify(r, h.owners, req.GuestEmail)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment")
		return
	}

	payment, err := h.service.CreatePayment(r.Context(), requester, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment")
		return
	}

	utils.ResponseCreated(w, "Payment created", payment)
}

// MakePayment handles POST /api/payments/pay (bearer or guest)
func (h *PaymentHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req request.MakePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	requester, err := identify(r, h.owners, req.GuestEmail)
	if err != nil {
		handleServiceError(w, h.log, err, "make payment")
		return
	}

	payment, err := h.service.MakePayment(r.Context(), requester, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "make payment")
		return
	}

	utils.ResponseSuccess(w, "Payment successful", payment)
}

// GetPendingPayment handles GET /api/payments/booking/{bookingId} (bearer or ?guest_email=)
func (h *PaymentHandler) GetPendingPayment(w http.ResponseWriter, r *http.Request) {
	requester, err := identify(r, h.owners, r.URL.Query().Get("guest_email"))
	if err != nil {
		handleServiceError(w, h.log, err, "get pending payment")
		return
	}

	payment, err := h.service.GetPendingPayment(r.Context(), requester, chi.URLParam(r, "bookingId"))
	if err != nil {
		handleServiceError(w, h.log, err, "get pending payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// ProcessRefund handles POST /api/payments/refund (protected)
func (h *PaymentHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	var req request.RefundRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	requester, err := identify(r, h.owners, "")
	if err != nil {
		handleServiceError(w, h.log, err, "process refund")
		return
	}

	payment, err := h.service.ProcessRefund(r.Context(), requester, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "process refund")
		return
	}

	utils.ResponseSuccess(w, "Payment refunded", payment)
}
