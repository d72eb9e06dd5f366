package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/config"
	appHTTP "github.com/fragranza-olio/ojt-backend/internal/handler/http"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/cache"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/cron"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/geo"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/metrics"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/notify"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/sse"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/storage"
	"github.com/fragranza-olio/ojt-backend/internal/repository/postgresql"
	attendanceService "github.com/fragranza-olio/ojt-backend/internal/service/attendance"
	serviceAuth "github.com/fragranza-olio/ojt-backend/internal/service/auth"
	"github.com/fragranza-olio/ojt-backend/internal/service/file"
	notificationService "github.com/fragranza-olio/ojt-backend/internal/service/notification"
	timesheetService "github.com/fragranza-olio/ojt-backend/internal/service/timesheet"
)

const version = "v1.0.0"

// maintenanceHour is the local hour in which the nightly jobs run.
const maintenanceHour = 1

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logger := appHTTP.NewLogger("fragranza-ojt", version, cfg.App.Env, cfg.LogLevel())
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	appMetrics := metrics.New()

	userRepo := postgresql.NewUserRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	latePermissionRepo := postgresql.NewLatePermissionRepository(db)
	timesheetRepo := postgresql.NewTimesheetRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	transactor := postgresql.NewTransactor(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		log.Fatal("Failed to initialize JWT service: ", err)
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.BaseURL)
	case "s3":
		fileStorage, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:   cfg.Storage.S3Bucket,
			Region:   cfg.Storage.S3Region,
			Prefix:   cfg.Storage.S3Prefix,
			Endpoint: cfg.Storage.S3Endpoint,
		})
	}
	if err != nil {
		log.Fatal("Failed to initialize file storage: ", err)
	}
	fileService := file.NewFileService(fileStorage)

	chat, err := chatChannel(cfg.Notify)
	if err != nil {
		log.Fatal("Failed to initialize chat notifications: ", err)
	}

	hub := sse.NewHub(sse.WithDropHandler(appMetrics.SSEEventDropped))
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{Chat: chat})
	defer notifSvc.Stop()

	attendanceOpts := []attendanceService.Option{
		attendanceService.WithNotifier(notifSvc),
		attendanceService.WithGeocoder(geo.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)),
		attendanceService.WithMetrics(appMetrics),
	}
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer client.Close()
		attendanceOpts = append(attendanceOpts, attendanceService.WithStatusCache(cache.New(client, "ojt:")))
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		attendanceRepo,
		latePermissionRepo,
		userRepo,
		cfg.Schedule,
		fileService,
		attendanceOpts...,
	)
	timesheetSvc := timesheetService.NewTimesheetService(
		transactor,
		timesheetRepo,
		attendanceRepo,
		userRepo,
		cfg.Schedule,
		timesheetService.WithNotifier(notifSvc),
	)
	authSvc := serviceAuth.NewAuthService(userRepo, JWTService)

	scheduler := cron.NewScheduler(cron.WithObserver(appMetrics.JobRun))
	cron.NewAttendanceJobs(attendanceSvc, cfg.Schedule.Location, maintenanceHour).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
		Metrics:        appMetrics,
	}, JWTService, appHTTP.Handlers{
		Auth:         appHTTP.NewAuthHandler(authSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Timesheet:    appHTTP.NewTimesheetHandler(timesheetSvc),
		Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// chatChannel mirrors notifications to every configured chat service.
func chatChannel(cfg config.NotifyConfig) (notify.Channel, error) {
	var channels notify.Multi
	if cfg.SlackToken != "" {
		channels = append(channels, notify.NewSlack(cfg.SlackToken, cfg.SlackChannel))
	}
	if cfg.DiscordToken != "" {
		discord, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			return nil, err
		}
		channels = append(channels, discord)
	}
	if len(channels) == 0 {
		return nil, nil
	}
	return channels, nil
}
