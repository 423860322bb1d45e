package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/livepoll/api/internal/adapters/repository/postgres"
	"github.com/livepoll/api/internal/core/services"
)

// One-shot job: rebuilds poll counters from the vote records (the ground
// truth) and prunes expired rate-limit log entries. Meant to run after a
// crash or on a schedule.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var connStr string
	var windowSeconds int
	flag.StringVar(&connStr, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.IntVar(&windowSeconds, "attempt-window", 60, "Rate-limit window in seconds; older attempt rows are pruned")
	flag.Parse()

	if connStr == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	reconcileRepo := postgres.NewReconcileRepository(db)
	attemptRepo := postgres.NewAttemptRepository(db)

	reconciler := services.NewReconcileService(
		reconcileRepo,
		attemptRepo,
		clockwork.NewRealClock(),
		time.Duration(windowSeconds)*time.Second,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Starting counter reconciliation job...")

	if err := reconciler.Run(ctx); err != nil {
		log.Fatalf("Error reconciling counters: %v", err)
	}

	log.Println("Counter reconciliation completed successfully.")
}
