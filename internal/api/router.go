package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreyakodukula/parking/internal/api/handler"
	"github.com/shreyakodukula/parking/internal/api/middleware"
	"github.com/shreyakodukula/parking/internal/domain"
)

type Services struct {
	Auth     handler.AuthService
	Slots    handler.SlotService
	Bookings handler.BookingService
	Admin    handler.AdminService
}

func SetupRouter(svcs Services, authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	handler.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if wsManager != nil {
		wsHandler := handler.NewWebSocketHandler(wsManager)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	authHandler := handler.NewAuthHandler(svcs.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(authMw.Authenticate())
	{
		slotH := handler.NewSlotHandler(svcs.Slots)
		slotRoutes := apiRoutes.Group("/slots")
		{
			slotRoutes.GET("", slotH.ListAvailable)
			slotRoutes.GET("/available", slotH.AvailableBetween)
			slotRoutes.GET("/:id", slotH.GetSlot)
		}

		bookingH := handler.NewBookingHandler(svcs.Bookings)
		bookingRoutes := apiRoutes.Group("/bookings")
		{
			bookingRoutes.POST("", bookingH.Create)
			bookingRoutes.PUT("/cancel/:id", bookingH.Cancel)
			bookingRoutes.POST("/:id/check-in", bookingH.CheckIn)
		}
		apiRoutes.GET("/users/bookings", bookingH.ListMine)

		adminH := handler.NewAdminHandler(svcs.Admin)
		adminRoutes := apiRoutes.Group("/admin")
		adminRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin))
		{
			adminRoutes.GET("/users", adminH.ListUsers)
			adminRoutes.GET("/bookings", adminH.ListBookings)
			adminRoutes.GET("/occupancy", adminH.Occupancy)
			adminRoutes.POST("/slots", adminH.CreateSlot)
			adminRoutes.PUT("/slots/:id", adminH.UpdateSlot)
			adminRoutes.DELETE("/slots/:id", adminH.DeleteSlot)
		}
	}
	return r
}
