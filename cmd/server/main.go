package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"collabtext/internal/api"
	"collabtext/internal/config"
	"collabtext/internal/docs"
	"collabtext/internal/presence"
	"collabtext/internal/routers"
	"collabtext/internal/session"
	"collabtext/internal/stats"
)

const statsInterval = 30 * time.Second

// Seams for tests.
var (
	listenAndServe = http.ListenAndServe
	exitFunc       = defaultExit
	exit           = os.Exit
)

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	documentStore := docs.NewStore()
	presenceStore := presence.NewStore()
	hub := session.NewHub(cfg, logger, documentStore, presenceStore)

	if cfg.RedisAddr != "" {
		publisher := stats.NewPublisher(cfg.RedisAddr, "")
		if err := publisher.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, stats publishing disabled",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = publisher.Close()
		} else {
			hub.SetStatsSink(publisher)
			defer func() { _ = publisher.Close() }()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hub.Run(ctx, statsInterval)

	handlers := api.NewHandlers(logger, cfg, hub, documentStore, presenceStore)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	r.Mount("/", routers.New(cfg, handlers))

	addr := cfg.Host + ":" + cfg.Port
	logger.Info("server listening", zap.String("addr", addr))
	return listenAndServe(addr, r)
}

func defaultExit(err error) {
	log.Printf("server error: %v", err)
	exit(1)
}
