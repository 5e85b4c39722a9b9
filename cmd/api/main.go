package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/config"
	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/leave"
	appHTTP "github.com/cmlabs-hris/timeclock/internal/handler/http"
	"github.com/cmlabs-hris/timeclock/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock/internal/repository/memory"
	"github.com/cmlabs-hris/timeclock/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/timeclock/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/timeclock/internal/service/leave"
	notificationService "github.com/cmlabs-hris/timeclock/internal/service/notification"
	reportService "github.com/cmlabs-hris/timeclock/internal/service/report"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", cfg.App.Name)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	hub := feed.NewHub()

	var (
		attendanceRepo attendance.Repository
		leaveRepo      leave.Repository
	)
	switch cfg.Database.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := postgresql.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		attendanceRepo = postgresql.NewAttendanceRepository(db)
		leaveRepo = postgresql.NewLeaveRequestRepository(db)

		listener := feed.NewPostgresListener(db, hub)
		go func() {
			if err := listener.Run(ctx); err != nil {
				slog.Error("Change feed listener stopped", "error", err)
			}
		}()
	case config.StoreDriverMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore(clock, hub)
		attendanceRepo = memory.NewAttendanceRepository(store)
		leaveRepo = memory.NewLeaveRepository(store)
	}

	var revocations jwt.RevocationStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		revocations = jwt.NewRedisRevocationStore(rdb)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, revocations)

	registry := attendanceService.NewRegistry(attendanceRepo)
	attendanceSvc := attendanceService.NewAttendanceService(registry, clock, cfg.Clock.LocateTimeout)
	reportSvc := reportService.NewReportService(attendanceRepo, cfg.App.Location, clock)
	leaveSvc := leaveService.NewLeaveService(leaveRepo)
	notificationSvc := notificationService.NewNotificationService(hub, leaveRepo)

	scheduler := cron.NewScheduler(cron.WithClock(clock))
	cron.NewAttendanceJobs(attendanceRepo).RegisterJobs(scheduler, cfg.Cron.AuditInterval)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AppName:        cfg.App.Name,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.AllowedOrigins(),
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, JWTService, appHTTP.Handlers{
		Auth:         appHTTP.NewAuthHandler(JWTService, registry, hub),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Report:       appHTTP.NewReportHandler(reportSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Notification: appHTTP.NewNotificationHandler(notificationSvc, JWTService),
		Stream: appHTTP.NewStreamHandler(JWTService, registry, notificationSvc, hub, clock, appHTTP.StreamConfig{
			ResyncInterval: cfg.Clock.ResyncInterval,
			TickInterval:   cfg.Clock.TickInterval,
		}),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
