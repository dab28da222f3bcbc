package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, planMiddleware, bookMiddleware gin.HandlerFunc) {
	group := g.Group("/trips")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("/:id", h.Get)
		group.GET("/:id/bookings", h.ListBookings)
	}

	// === Scoped Routes ===
	group.POST("", planMiddleware, h.Plan)
	group.POST("/:id/bookings", bookMiddleware, h.Book)
}
