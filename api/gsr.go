package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/service/booking"
	"github.com/pennmobile/gsr-booking/internal/service/spaces"
)

type GSRHandler struct {
	spaces   spaces.SpacesUseCase
	bookings booking.BookingUseCase
	spanDays int
}

func NewGSRHandler(spacesSvc spaces.SpacesUseCase, bookingSvc booking.BookingUseCase, defaultSpanDays int) *GSRHandler {
	return &GSRHandler{spaces: spacesSvc, bookings: bookingSvc, spanDays: defaultSpanDays}
}

func (h *GSRHandler) Register(router *gin.RouterGroup) {
	router.GET("/locations", h.locations)
	router.GET("/availability/:lid", h.availability)
	router.POST("/groups/:id/book-rooms", h.bookRooms)
	router.POST("/cancel", h.cancel)
	router.GET("/reservations", h.reservations)
}

func (h *GSRHandler) locations(c *gin.Context) {
	buildings, err := h.spaces.Locations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": buildings})
}

func (h *GSRHandler) availability(c *gin.Context) {
	lid := c.Param("lid")
	date := c.Query("start")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
	}

	rooms, err := h.spaces.Availability(c.Request.Context(), currentUser(c), lid, date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown location"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type roomBookingPayload struct {
	Room     string    `json:"room" binding:"required"`
	RoomName string    `json:"room_name"`
	Lid      string    `json:"lid" binding:"required"`
	Start    time.Time `json:"start" binding:"required"`
	End      time.Time `json:"end" binding:"required"`
}

type bookRoomsRequest struct {
	RoomBookings []roomBookingPayload `json:"room_bookings" binding:"required,min=1,dive"`
}

// bookRooms returns 200 with per-room results even when every room
// failed; partial success is the caller's to render.
func (h *GSRHandler) bookRooms(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req bookRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requests := make([]domain.BookingRequest, 0, len(req.RoomBookings))
	for _, rb := range req.RoomBookings {
		if !rb.End.After(rb.Start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
			return
		}
		requests = append(requests, domain.BookingRequest{
			Lid:      rb.Lid,
			RoomID:   rb.Room,
			RoomName: rb.RoomName,
			Start:    rb.Start,
			End:      rb.End,
		})
	}

	results, err := h.bookings.BookRooms(c.Request.Context(), groupID, currentUser(c), requests)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "must be a group admin to book"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

type cancelRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

func (h *GSRHandler) cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.bookings.Cancel(c.Request.Context(), currentUser(c), req.BookingID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "booking not found"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "this reservation was booked by someone else"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "success"})
}

func (h *GSRHandler) reservations(c *gin.Context) {
	spanDays := h.spanDays
	if raw := c.Query("libcal_search_span"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "libcal_search_span must be a positive integer"})
			return
		}
		spanDays = parsed
	}

	reservations, err := h.bookings.ListUpcoming(c.Request.Context(), currentUser(c), spanDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}
