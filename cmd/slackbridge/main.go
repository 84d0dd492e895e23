package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sipeed/slackbridge/pkg/channels"
	"github.com/sipeed/slackbridge/pkg/config"
	"github.com/sipeed/slackbridge/pkg/gateway"
	"github.com/sipeed/slackbridge/pkg/logger"
	"github.com/sipeed/slackbridge/pkg/providers"
	"github.com/sipeed/slackbridge/pkg/signature"
)

func main() {
	configPath := flag.String("config", os.Getenv("SLACKBRIDGE_CONFIG"), "optional JSON config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnCF("main", "Failed to load .env file", map[string]interface{}{"error": err.Error()})
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.FatalCF("main", "Failed to load configuration", map[string]interface{}{"error": err.Error()})
		return
	}
	setupLogging(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.FatalCF("main", "Invalid configuration", map[string]interface{}{"error": err.Error()})
		return
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}

	llm, err := providers.CreateProvider(cfg, httpClient)
	if err != nil {
		logger.FatalCF("main", "Failed to create completion provider", map[string]interface{}{"error": err.Error()})
		return
	}

	events := gateway.NewEventHandler(
		signature.NewVerifier(cfg.Slack.SigningSecret),
		channels.NewSlackClient(cfg.Slack, httpClient),
		llm,
		gateway.Options{
			BotID:            cfg.Slack.BotID,
			Model:            cfg.LLM.Model,
			Prompt:           cfg.LLM.Prompt,
			MaxReferMessages: cfg.LLM.MaxReferMessages,
			TempMessage:      cfg.Slack.TempMessage,
			ErrorMessage:     cfg.Slack.ErrorMessage,
		},
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           gateway.NewRouter(events),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.InfoCF("main", "Slack bridge listening", map[string]interface{}{
		"addr":      srv.Addr,
		"provider":  llm.Name(),
		"model":     cfg.LLM.Model,
		"log_level": logger.GetLevel().String(),
	})
	if err := runServer(ctx, srv); err != nil {
		logger.FatalCF("main", "Server error", map[string]interface{}{"error": err.Error()})
	}
	logger.InfoC("main", "Shut down cleanly")
}

func setupLogging(cfg config.LoggingConfig) {
	if level, ok := logger.ParseLevel(cfg.Level); ok {
		logger.SetLevel(level)
	} else {
		logger.WarnCF("main", "Unknown log level, using INFO", map[string]interface{}{"level": cfg.Level})
	}

	if !cfg.FileEnabled {
		return
	}
	enable := func() error { return logger.EnableFileLogging(cfg.FilePath) }
	if cfg.RotationEnabled {
		enable = func() error {
			return logger.EnableFileLoggingWithRotation(cfg.FilePath, true, cfg.MaxSizeMB, cfg.MaxAgeDays)
		}
	}
	if err := enable(); err != nil {
		logger.WarnCF("main", "File logging unavailable", map[string]interface{}{
			"path":  cfg.FilePath,
			"error": err.Error(),
		})
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		logger.DisableFileLogging()
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
