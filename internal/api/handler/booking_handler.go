package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreyakodukula/parking/internal/domain"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID int, dto domain.CreateBookingDTO) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int) (*domain.Booking, error)
	CheckIn(ctx context.Context, userID, bookingID int, dto domain.CheckInDTO) (*domain.CheckInResultDTO, error)
	ListUserBookings(ctx context.Context, userID int) ([]domain.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
}

func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var dto domain.CreateBookingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), userID, dto)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// PUT /api/bookings/cancel/:id
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.CancelBooking(c.Request.Context(), userID, id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// POST /api/bookings/:id/check-in
func (h *BookingHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var dto domain.CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.bookings.CheckIn(c.Request.Context(), userID, id, dto)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/users/bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookings, err := h.bookings.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}
