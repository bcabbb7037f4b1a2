package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/api"
	"github.com/spirolab/spiro/backend-go/internal/auth"
	"github.com/spirolab/spiro/backend-go/internal/config"
	"github.com/spirolab/spiro/backend-go/internal/dragging"
	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	authService := auth.NewService(cfg.SessionSecret, cfg.SessionTTL)

	hub := session.NewHub(session.Options{
		TickInterval: cfg.TickInterval(),
		FrameEvery:   cfg.FrameEvery,
		IdleTimeout:  cfg.SessionIdleTimeout,
		MaxSessions:  cfg.MaxSessions,
		Engine: engine.Options{
			SnapThreshold: cfg.SnapThreshold,
			Resume:        dragging.ParseResumePolicy(cfg.ResumePolicy),
		},
	})
	go hub.Run()

	r := api.NewRouter(hub, authService, cfg.Origins(), cfg.PublicURL)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop sessions first so websocket clients see their send channels close.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "tick_hz", cfg.TickHz)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
