// Command drived runs the replication server: a shared, durable event
// log that paperdrive replicas push to and pull from, backed by
// PostgreSQL.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"paperdrive/internal/api"
	"paperdrive/pkg/eventlog"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "postgres://localhost:5432/paperdrive"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer pool.Close()

	store := eventlog.NewPgStore(pool)
	if err := store.EnsureTable(ctx); err != nil {
		logger.Fatal("ensure events table", zap.Error(err))
	}

	server := api.New(store, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("drived listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, server); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}
