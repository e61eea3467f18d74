package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/config"
	"github.com/labmate/labmate/internal/database"
	"github.com/labmate/labmate/internal/handler"
	"github.com/labmate/labmate/internal/logger"
	"github.com/labmate/labmate/internal/queue"
	"github.com/labmate/labmate/internal/repository"
	"github.com/labmate/labmate/internal/router"
	"github.com/labmate/labmate/internal/schedule"
	"github.com/labmate/labmate/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the vars directly

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("schema migration failed", zap.Error(err))
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable; features degrade
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	resRepo := repository.NewReservationRepo(db)
	labRepo := repository.NewLaboratoryRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	loc := cfg.Location()
	clock := schedule.RealClock{}
	svc := service.NewReservationService(resRepo, labRepo, userRepo, clock, loc, log, queue.PublishReservationEvent)

	// Expiry sweep: removes reservations whose window has passed and
	// publishes an expiry event for each one.
	sweeper := schedule.NewSweeper(resRepo, clock, loc, cfg.SweepInterval(), log)
	sweeper.OnPurged = svc.PurgeNotifier()
	go sweeper.Run(ctx)

	// Event log consumer; reconnects on its own until the process exits.
	go queue.StartReservationConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	h := router.Handlers{
		Auth: handler.NewAuthHandler(cfg, userRepo, tokenRepo),
		Res:  handler.NewReservationHandler(svc, clock, loc),
		Labs: handler.NewLaboratoryHandler(labRepo, svc, loc),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, h.Auth, cfg.JWTSecret)
	router.RegisterPublic(e, h, rdb)
	router.RegisterReservations(e, h, cfg.JWTSecret, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
