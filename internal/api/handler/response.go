package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/shreyakodukula/parking/internal/api/middleware"
	"github.com/shreyakodukula/parking/internal/payment"
	"github.com/shreyakodukula/parking/internal/service"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerTagNames sync.Once

// UseJSONFieldNames makes validation errors report json/form tag names instead of Go field names.
func UseJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

func validationErrors(c *gin.Context, errs ...FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// bindError reports a failed ShouldBind* call as field-level 400s.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: describe(fe)})
		}
		validationErrors(c, out...)
		return
	}
	validationErrors(c, FieldError{Field: "body", Message: err.Error()})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtfield":
		return "must be after " + toSnake(fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "base64":
		return "must be base64 encoded"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		validationErrors(c, FieldError{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return 0, false
	}
	id, ok := v.(int)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return 0, false
	}
	return id, true
}

// serviceError maps service sentinels to HTTP statuses. Anything unrecognised is
// logged and hidden behind a generic 500.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotFound), errors.Is(err, service.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": rootMessage(err)})
	case errors.Is(err, service.ErrInvalidTimeRange):
		validationErrors(c, FieldError{Field: "end_time", Message: err.Error()})
	case errors.Is(err, payment.ErrPaymentFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": payment.ErrPaymentFailed.Error()})
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrSlotAlreadyBooked),
		errors.Is(err, service.ErrBookingNotActive),
		errors.Is(err, service.ErrDuplicateSlotNumber),
		errors.Is(err, service.ErrSlotHasActiveBookings),
		errors.Is(err, service.ErrNoVehiclePlate),
		errors.Is(err, service.ErrPlateMismatch),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrPlateNotDetected):
		c.JSON(http.StatusBadRequest, gin.H{"error": rootMessage(err)})
	case errors.Is(err, service.ErrNotBookingOwner):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrNotBookingOwner.Error()})
	case errors.Is(err, service.ErrCheckInUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		serverError(c, err)
	}
}

func serverError(c *gin.Context, err error) {
	slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
}

// rootMessage returns the innermost error text so wrapping context stays out of responses.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
