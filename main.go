package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/livepoll/bus"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/queue"
	"github.com/danielhkuo/livepoll/router"
	"github.com/danielhkuo/livepoll/ttlstore"
	"github.com/danielhkuo/livepoll/worker"
	"github.com/danielhkuo/livepoll/ws"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to storage (sqlite for single-node, postgres for shared)
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Open the durable vote queue. Jobs left in flight by a crash are
	// requeued here before any worker starts.
	q, err := queue.Open(cfg.QueuePath, cfg.MaxJobAttempts)
	if err != nil {
		slog.Error("queue open failed", "error", err, "path", cfg.QueuePath)
		os.Exit(1)
	}
	defer q.Close()

	// Shared TTL store: admission gate, broadcast cooldown, result cache
	store := ttlstore.New()
	defer store.Close()

	// Event bus and live viewer registry
	busManager := bus.NewManager()
	registry := ws.NewRegistry()
	wsHandler := ws.NewHandler(registry)

	wsCtx, wsCancel := context.WithCancel(context.Background())
	defer wsCancel()
	go ws.Run(wsCtx, busManager, registry)

	// Vote processors
	pool := worker.NewPool(dbConn, q, store, busManager, cfg)
	pool.Start()
	defer pool.Stop()

	// Create router
	mux := router.NewRouter(dbConn, q, store, wsHandler, cfg)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "workers", cfg.WorkerCount)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
