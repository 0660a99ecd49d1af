package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/zone_service/internal/cache"
	"github.com/Skotchmaster/zone_service/internal/config"
	"github.com/Skotchmaster/zone_service/internal/httpserver"
	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/mykafka"
	"github.com/Skotchmaster/zone_service/internal/repo"
	"github.com/Skotchmaster/zone_service/internal/service"
	"github.com/Skotchmaster/zone_service/internal/transport"
	pkgdb "github.com/Skotchmaster/zone_service/pkg/db"
	"github.com/Skotchmaster/zone_service/pkg/logging"
	loggingmw "github.com/Skotchmaster/zone_service/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL, models.All()...)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb := cache.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb == nil {
		logger.Warn("redis unavailable, zone cache disabled", "addr", cfg.RedisAddr)
	}
	zoneCache := cache.NewZoneCache(rdb, cfg.ServiceName, cfg.ZoneCacheTTL)

	var events *service.Events
	prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.Warn("kafka unavailable, events disabled", "error", err)
	} else {
		events = &service.Events{Pub: prod, Topic: cfg.ZoneEventsTopic}
	}

	Repo := repo.NewGormRepo(db)

	zoneService := &service.ZoneService{Repo: Repo, Cache: zoneCache, Events: events}
	locationService := &service.LocationService{Repo: Repo, Zones: zoneService, Events: events}
	cartService := &service.CartService{Repo: Repo, Events: events}

	e := echo.New()
	e.HideBanner = true
	e.Validator = transport.NewValidator()

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())

	httpserver.Register(e, &httpserver.Deps{
		ZonesHandler:    &httpserver.ZonesHTTP{Svc: zoneService, Loc: locationService},
		AdminHandler:    &httpserver.AdminHTTP{Svc: zoneService},
		LocationHandler: &httpserver.LocationHTTP{Svc: locationService},
		CartHandler:     &httpserver.CartHTTP{Svc: cartService},
		JWTSecret:       cfg.JWTAccessSecret,
	})

	go func() {
		logger.Info("starting zone service", "port", cfg.ServerPort)
		if err := e.Start(":" + strconv.Itoa(cfg.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
