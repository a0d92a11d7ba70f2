package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreyakodukula/parking/internal/domain"
)

type SlotService interface {
	ListAvailable(ctx context.Context) ([]domain.ParkingSlot, error)
	AvailableBetween(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error)
	GetSlot(ctx context.Context, id int) (*domain.ParkingSlot, error)
}

type SlotHandler struct {
	slots SlotService
}

func NewSlotHandler(slots SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// GET /api/slots
func (h *SlotHandler) ListAvailable(c *gin.Context) {
	slots, err := h.slots.ListAvailable(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /api/slots/available?start_time=...&end_time=...
func (h *SlotHandler) AvailableBetween(c *gin.Context) {
	var q domain.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	slots, err := h.slots.AvailableBetween(c.Request.Context(), q.StartTime, q.EndTime)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /api/slots/:id
func (h *SlotHandler) GetSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	slot, err := h.slots.GetSlot(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}
