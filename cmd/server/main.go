package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/livepoll/api/internal/adapters/broadcast/memory"
	"github.com/livepoll/api/internal/adapters/handler/http"
	"github.com/livepoll/api/internal/adapters/repository/postgres"
	"github.com/livepoll/api/internal/config"
	"github.com/livepoll/api/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	attemptRepo := postgres.NewAttemptRepository(db)

	broadcaster := memory.NewBroadcaster()
	rateLimiter := services.NewRateLimitService(attemptRepo, clockwork.NewRealClock(), cfg.RateLimitWindow(), cfg.RateLimitMaxAttempts)
	pollService := services.NewPollService(pollRepo)
	voteService := services.NewVoteService(pollRepo, voteRepo, rateLimiter, broadcaster)

	identity := http.NewIdentityResolver(cfg.IdentitySecret, cfg.CookieDomain, cfg.CookieSecure)
	handler := http.NewHandler(
		cfg.CORSOrigins,
		http.NewPollHandler(pollService),
		http.NewVoteHandler(voteService, identity),
		http.NewEventsHandler(pollService, broadcaster),
	)

	server := &stdhttp.Server{Addr: fmt.Sprintf("0.0.0.0:%d", cfg.Port), Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("gracefully shutting down")

	// Ending subscriptions first lets open event streams drain during
	// Shutdown instead of holding it until the timeout.
	broadcaster.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
