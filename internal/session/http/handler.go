package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
	bookingHttp "github.com/nekogravitycat/trip-orchestrator/internal/booking/http"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/request"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/response"
)

// Service is the part of the trip session the trip endpoints use.
type Service interface {
	PlanTrip(ctx context.Context, req constraint.Request) (*itinerary.Itinerary, error)
	Itinerary(ctx context.Context, id string) (*itinerary.Itinerary, error)
	BookTrip(ctx context.Context, itineraryID string) (*booking.Result, error)
	Bookings(ctx context.Context, itineraryID string) ([]*booking.Booking, error)
}

type Handler struct {
	service Service
	log     *slog.Logger
}

func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) Plan(c *gin.Context) {
	var body PlanTripRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req, err := body.ToRequest()
	if err != nil {
		response.Error(c, err)
		return
	}

	it, err := h.service.PlanTrip(c.Request.Context(), req)
	if err != nil {
		h.log.InfoContext(c.Request.Context(), "plan trip rejected", "caller_id", auth.GetCallerID(c), "error", err)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewItineraryResponse(it))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	it, err := h.service.Itinerary(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewItineraryResponse(it))
}

// Book reserves every item of the trip. Per-item failures are part of the
// 200 response, never an error status.
func (h *Handler) Book(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.service.BookTrip(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "trip booked",
		"itinerary_id", req.ID, "caller_id", auth.GetCallerID(c), "overall", res.Overall)
	c.JSON(http.StatusOK, bookingHttp.NewResultResponse(res))
}

func (h *Handler) ListBookings(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	list, err := h.service.Bookings(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": bookingHttp.NewBookingList(list)})
}
