package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/shreyakodukula/parking/internal/api"
	"github.com/shreyakodukula/parking/internal/api/handler"
	"github.com/shreyakodukula/parking/internal/api/middleware"
	"github.com/shreyakodukula/parking/internal/cache"
	"github.com/shreyakodukula/parking/internal/config"
	"github.com/shreyakodukula/parking/internal/iot"
	"github.com/shreyakodukula/parking/internal/messaging"
	"github.com/shreyakodukula/parking/internal/payment"
	"github.com/shreyakodukula/parking/internal/repository/postgresql"
	"github.com/shreyakodukula/parking/internal/service"
)

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	awsSDKCfg, err := awsgo_config.LoadDefaultConfig(ctx, awsgo_config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	sqsClient := sqs.NewFromConfig(awsSDKCfg)

	userRepo := postgresql.NewPgUserRepository(db)
	slotRepo := postgresql.NewPgParkingSlotRepository(db)
	bookingRepo := postgresql.NewPgBookingRepository(db)

	var redisClient redis.Cmdable
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, cache reads will fall through", "addr", cfg.RedisAddr, "error", err)
		}
		redisClient = rc
	} else {
		slog.Warn("REDIS_ADDR not set, caching disabled")
	}
	slotCache := cache.NewSlotCache(redisClient, cfg.CacheTTL)

	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start(ctx)

	var signage service.SignageUpdater
	if cfg.IoTMQTTEndpoint != "" {
		iotDataPlaneClient := iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
			endpointWithSchema := cfg.IoTMQTTEndpoint
			if !strings.HasPrefix(endpointWithSchema, "https://") && !strings.HasPrefix(endpointWithSchema, "http://") {
				endpointWithSchema = "https://" + endpointWithSchema
			}
			o.BaseEndpoint = aws.String(endpointWithSchema)
		})
		signage = iot.NewSignagePublisher(iotDataPlaneClient)
	} else {
		slog.Warn("IOT_MQTT_ENDPOINT not set, slot signage disabled")
	}

	events, closeEvents, err := newEventPublisher(cfg, sqsClient)
	if err != nil {
		return err
	}
	defer closeEvents()

	notifier := service.NewNotifier(webSocketManager, signage, events)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey)
	plateReader := newPlateReader(cfg, awsSDKCfg)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	slotService := service.NewSlotService(slotRepo, slotCache)
	bookingService := service.NewBookingService(bookingRepo, slotRepo, gateway, plateReader, notifier, slotCache,
		cfg.PaymentCurrency, cfg.RefundPercent)
	adminService := service.NewAdminService(userRepo, slotRepo, bookingRepo, notifier, slotCache)
	sweeper := service.NewBookingSweeper(bookingRepo, slotRepo, notifier, slotCache)

	var wg sync.WaitGroup

	if cfg.PaymentEventsQueueURL == "" {
		slog.Warn("PAYMENT_EVENTS_QUEUE_URL not set, payment notifications consumer disabled")
	} else {
		consumer := messaging.NewSQSConsumer(sqsClient, cfg.PaymentEventsQueueURL, bookingService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx, cfg.BookingSweepInterval)
	}()

	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.Services{
		Auth:     authService,
		Slots:    slotService,
		Bookings: bookingService,
		Admin:    adminService,
	}, middleware.NewAuthMiddleware(authService), webSocketManager)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stop()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shut down: %w", err)
	}

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		wg.Wait()
	}()
	select {
	case <-workersDone:
	case <-time.After(5 * time.Second):
		slog.Warn("background workers did not stop in time")
	}

	slog.Info("server stopped")
	return nil
}

// newPlateReader returns nil when plate check-in is switched off, which makes check-in
// answer 503.
func newPlateReader(cfg *config.Config, awsCfg aws.Config) service.PlateReader {
	if !cfg.PlateCheckInEnabled {
		slog.Warn("PLATE_CHECKIN_ENABLED is false, plate check-in disabled")
		return nil
	}
	return service.NewLPRService(rekognition.NewFromConfig(awsCfg))
}

// newEventPublisher picks the booking event bus from EVENT_BUS.
func newEventPublisher(cfg *config.Config, sqsClient *sqs.Client) (messaging.EventPublisher, func(), error) {
	switch cfg.EventBus {
	case config.EventBusSQS:
		if cfg.BookingEventsQueueURL == "" {
			return nil, nil, errors.New("EVENT_BUS=sqs requires BOOKING_EVENTS_QUEUE_URL")
		}
		return messaging.NewSQSPublisher(sqsClient, cfg.BookingEventsQueueURL), func() {}, nil
	case config.EventBusRabbitMQ:
		conn, ch, err := messaging.SetupRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewRabbitMQPublisher(ch), func() {
			ch.Close()
			conn.Close()
		}, nil
	default:
		slog.Info("booking events disabled", "event_bus", cfg.EventBus)
		return messaging.NopPublisher{}, func() {}, nil
	}
}
