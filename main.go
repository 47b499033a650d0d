package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/withmates/activity-service/config"
	"github.com/withmates/activity-service/internal/handler"
	"github.com/withmates/activity-service/internal/middleware"
	"github.com/withmates/activity-service/internal/notify"
	"github.com/withmates/activity-service/internal/repository"
	"github.com/withmates/activity-service/internal/scheduler"
	"github.com/withmates/activity-service/internal/service"
	"github.com/withmates/activity-service/pkg/database"
	"github.com/withmates/activity-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	notifier := notify.NewAMQPNotifier(publisher)

	// Repositories
	activityRepo := repository.NewActivityRepository(db)
	participantRepo := repository.NewParticipantRepository(db)

	// Services
	activitySvc := service.NewActivityService(activityRepo, participantRepo, notifier)
	participationSvc := service.NewParticipationService(participantRepo, activityRepo, notifier, cfg.MaxApplicationAttempts)

	// Lifecycle sweeps run on their own timers, independent of request traffic.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(activityRepo, participantRepo, notifier, scheduler.Config{
		CompletionInterval:  cfg.CompletionInterval,
		ReminderInterval:    cfg.ReminderInterval,
		MaintenanceInterval: cfg.MaintenanceInterval,
	})
	go sched.Run(ctx)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "activity-service"})
	})

	api := e.Group("/api/v1", middleware.CallerIdentity)
	handler.NewActivityHandler(activitySvc, participantRepo).RegisterRoutes(api)
	handler.NewParticipantHandler(participationSvc).RegisterRoutes(api)

	log.Printf("Activity Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
