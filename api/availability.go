package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkotelnikov/calbooking/config"
	"github.com/nkotelnikov/calbooking/internal/calendar"
	"github.com/nkotelnikov/calbooking/internal/service/availability"
)

type AvailabilityHandler struct {
	service  availability.AvailabilityUseCase
	defaults config.BookingConfig
}

type availabilityRequest struct {
	Date            string   `json:"date" binding:"required"`
	CalendarIDs     []string `json:"calendar_ids"`
	DurationMinutes int      `json:"duration_minutes"`
	WorkStart       *int     `json:"work_start"`
	WorkEnd         *int     `json:"work_end"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase, defaults config.BookingConfig) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, defaults: defaults}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.POST("/availability", h.query)
}

func (h *AvailabilityHandler) query(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := availability.Query{
		CalendarIDs:     req.CalendarIDs,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		WorkStart:       h.defaults.WorkStart,
		WorkEnd:         h.defaults.WorkEnd,
	}
	if len(query.CalendarIDs) == 0 && h.defaults.DefaultCalendarID != "" {
		query.CalendarIDs = []string{h.defaults.DefaultCalendarID}
	}
	if query.DurationMinutes == 0 {
		query.DurationMinutes = h.defaults.SlotMinutes
	}
	if req.WorkStart != nil {
		query.WorkStart = *req.WorkStart
	}
	if req.WorkEnd != nil {
		query.WorkEnd = *req.WorkEnd
	}

	day, err := h.service.GetAvailability(c.Request.Context(), query)
	if err != nil {
		status := http.StatusBadRequest
		var remoteErr *calendar.RemoteError
		if errors.As(err, &remoteErr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, day)
}
