// anca-server runs the dashboard's OIDC session-authentication service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/anca-dev/anca-server/config"
	"github.com/anca-dev/anca-server/oidc"
	"github.com/anca-dev/anca-server/server"
	"github.com/anca-dev/anca-server/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "anca-server",
		Level: hclog.Info,
	})

	client, err := oidc.NewClient(cfg.OIDC(), oidc.WithLogger(logger.Named("oidc")))
	if err != nil {
		return err
	}

	var store session.Store = session.NewMemStore()
	switch {
	case cfg.RedisURL != "":
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		store = session.NewRedisStore(redis.NewClient(redisOpts))
		logger.Info("using redis session store")
	default:
		logger.Info("using in-memory session store; sessions do not survive restarts")
	}

	sessions, err := session.NewService(store, client, cfg.Session(),
		session.WithLogger(logger.Named("session")))
	if err != nil {
		return err
	}
	srv, err := server.New(sessions, cfg.Server(), server.WithLogger(logger.Named("http")))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("listening", "addr", cfg.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
