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

	"github.com/Skotchmaster/classifieds/internal/config"
	"github.com/Skotchmaster/classifieds/internal/db"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/httpserver"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/metrics"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/search"
	"github.com/Skotchmaster/classifieds/internal/service"
	"github.com/Skotchmaster/classifieds/internal/storage"
	"github.com/Skotchmaster/classifieds/internal/sweeper"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	images, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var kafka *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafka
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var index search.Index = search.Nop{}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
		es, err := search.NewClient(esCtx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		}, logger)
		esCancel()
		if err != nil {
			logger.Warn("es_unavailable", "error", err)
		} else {
			index = search.NewESIndex(es, cfg.ESIndex)
		}
	}

	m := metrics.New()
	r := repo.New(gdb)
	hooks := service.Hooks{Events: publisher, Index: index, Metrics: m}

	e := httpserver.New(httpserver.Options{Logger: logger, CORSOrigins: cfg.CORSOrigins})
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:         &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret}},
		UserHandler:         &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
		AdHandler:           &httpserver.AdHTTP{Svc: &service.AdService{Repo: r, Images: images, Hooks: hooks}},
		UploadHandler:       &httpserver.UploadHTTP{Images: images},
		CategoryHandler:     &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		VerificationHandler: &httpserver.ModerationHTTP{Svc: &service.ModerationService{Repo: r, Hooks: hooks}},
		JWTSecret:           cfg.JWTSecret,
		UploadDir:           cfg.UploadDir,
		Metrics:             m.Handler(),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	sw := &sweeper.Sweeper{
		Repo:    r,
		Images:  images,
		Events:  publisher,
		Index:   index,
		Metrics: m,
		Log:     logger,
	}
	cron := sweeper.NewCron()
	if err := sw.Register(sweepCtx, cron); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	cron.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	stopSweeps()
	cron.Stop()

	if kafka != nil {
		if err := kafka.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("stopped")
}
