package main

import (
	"context"
	"ecodigest/app/api"
	"ecodigest/app/client/llm"
	"ecodigest/app/client/newsapi"
	"ecodigest/app/config"
	"ecodigest/app/service/digest"
	"ecodigest/app/service/session"
	"ecodigest/app/util/mylog"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const configPathEnv = "ECODIGEST_CONFIG"

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.New)
	do.Provide(di, newsapi.NewClient)
	do.Provide(di, digest.New)
	do.Provide(di, session.New)
	do.Provide(di, api.New)

	slog.Info("Service started",
		slog.String("model", cfg.LLM.Model),
		slog.String("llm_backend", cfg.LLM.Backend),
	)

	g, ctx := errgroup.WithContext(appCtx)

	g.Go(func() error {
		return do.MustInvoke[*session.Service](di).RunCleanupLoop(ctx)
	})
	g.Go(func() error {
		return do.MustInvoke[*api.Server](di).Run(ctx)
	})

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", slog.Any("error", err))
		return
	}

	log.Info("Shutting down...")
}

func configPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}

	return config.DefaultPath
}
