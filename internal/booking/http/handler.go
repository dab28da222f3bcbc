package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/request"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/response"
)

// Service is the part of the trip session the booking endpoints use.
type Service interface {
	Booking(ctx context.Context, bookingID string) (*booking.Booking, error)
	Cancel(ctx context.Context, bookingID string) (*booking.Booking, error)
}

type Handler struct {
	service Service
	log     *slog.Logger
}

func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func bindRef(c *gin.Context) (string, bool) {
	var req request.ByRefRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return "", false
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return "", false
	}
	return req.ID, true
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bindRef(c)
	if !ok {
		return
	}

	b, err := h.service.Booking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Cancel releases a confirmed reservation. Pending, failed and cancelled
// bookings answer 409.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bindRef(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "cancel booking failed",
			"booking_id", id, "caller_id", auth.GetCallerID(c), "error", err)
		response.Error(c, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "booking cancelled", "booking_id", b.ID, "caller_id", auth.GetCallerID(c))
	c.JSON(http.StatusOK, NewBookingResponse(b))
}
