package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkotelnikov/calbooking/internal/domain"
	"github.com/nkotelnikov/calbooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	CalendarID     string `json:"calendar_id"`
	ServiceID      string `json:"service_id" binding:"required"`
	Start          string `json:"start" binding:"required"`
	End            string `json:"end" binding:"required"`
	CustomerID     string `json:"customer_id" binding:"required"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone"`
	AgentID        string `json:"agent_id"`
	Notes          string `json:"notes"`
}

type rescheduleBookingRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type bookingResponse struct {
	BookingRef string `json:"booking_ref"`
	CustomerID string `json:"customer_id"`
	CalendarID string `json:"calendar_id"`
	EventID    string `json:"event_id"`
	ServiceID  string `json:"service_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Status     string `json:"status"`
	Paid       bool   `json:"paid"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.POST("/bookings/:ref/reschedule", h.reschedule)
	router.POST("/bookings/:ref/cancel", h.cancel)
	router.GET("/bookings/:ref", h.get)
	router.GET("/customers/:customer_id/bookings", h.list)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		IdempotencyKey: req.IdempotencyKey,
		CalendarID:     req.CalendarID,
		ServiceID:      req.ServiceID,
		Start:          start,
		End:            end,
		Customer: domain.Customer{
			CustomerID: req.CustomerID,
			Name:       req.CustomerName,
			Email:      req.CustomerEmail,
			Phone:      req.CustomerPhone,
		},
		AgentID: req.AgentID,
		Notes:   req.Notes,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) reschedule(c *gin.Context) {
	var req rescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
		return
	}

	updated, err := h.service.RescheduleBooking(c.Request.Context(), c.Param("ref"), start, end)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) list(c *gin.Context) {
	upcomingOnly := c.Query("upcoming") == "true"
	bookings, err := h.service.ListBookings(c.Request.Context(), c.Param("customer_id"), upcomingOnly)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	responses := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": responses})
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingRef: b.BookingRef,
		CustomerID: b.CustomerID,
		CalendarID: b.CalendarID,
		EventID:    b.EventID,
		ServiceID:  b.ServiceID,
		Start:      b.Start.UTC().Format(time.RFC3339),
		End:        b.End.UTC().Format(time.RFC3339),
		Status:     string(b.Status),
		Paid:       b.Paid,
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrBookingCancelled):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrCalendarCreate), errors.Is(err, booking.ErrCalendarUpdate):
		return http.StatusBadGateway
	case errors.Is(err, booking.ErrStoreCreate), errors.Is(err, booking.ErrStoreUpdate):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
