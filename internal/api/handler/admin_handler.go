package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreyakodukula/parking/internal/domain"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	Occupancy(ctx context.Context) (*domain.OccupancyStats, error)
	CreateSlot(ctx context.Context, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error)
	UpdateSlot(ctx context.Context, id int, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error)
	DeleteSlot(ctx context.Context, id int) error
}

type AdminHandler struct {
	admin AdminService
}

func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GET /api/admin/bookings
func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.admin.ListBookings(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /api/admin/occupancy
func (h *AdminHandler) Occupancy(c *gin.Context) {
	stats, err := h.admin.Occupancy(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// POST /api/admin/slots
func (h *AdminHandler) CreateSlot(c *gin.Context) {
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}
	slot, err := h.admin.CreateSlot(c.Request.Context(), dto)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// PUT /api/admin/slots/:id
func (h *AdminHandler) UpdateSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}
	slot, err := h.admin.UpdateSlot(c.Request.Context(), id, dto)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /api/admin/slots/:id
func (h *AdminHandler) DeleteSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteSlot(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "slot removed"})
}
