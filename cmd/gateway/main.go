package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/educhainx/credential-gateway/internal/admin"
	"github.com/educhainx/credential-gateway/internal/credential"
	"github.com/educhainx/credential-gateway/internal/health"
	"github.com/educhainx/credential-gateway/internal/metrics"
	"github.com/educhainx/credential-gateway/internal/snapshot"
	"github.com/educhainx/credential-gateway/internal/store"
	"github.com/educhainx/credential-gateway/internal/verification"
)

func main() {
	// Configuration flags
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	dbPath := flag.String("db", "gateway.db", "SQLite database path")
	owner := flag.String("owner", "registrar", "Registry owner identity")
	adminAPIKey := flag.String("admin-api-key", "", "API key authorizing registry mutations")
	chainRPC := flag.String("chain-rpc", "", "Ethereum JSON-RPC endpoint for transaction lookups (empty: simulated)")
	chainTimeout := flag.String("chain-timeout", "10s", "Timeout for a single chain lookup")
	recognizedHashes := flag.String("recognized-hashes", "", "Comma-separated recognized transcript hashes (empty: simulated)")
	snapshotInterval := flag.String("snapshot-interval", "30s", "How often to persist registry and ledger snapshots")
	flag.Parse()

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval, err := time.ParseDuration(*snapshotInterval)
	if err != nil {
		log.Fatalf("Invalid snapshot interval: %v", err)
	}
	lookupTimeout, err := time.ParseDuration(*chainTimeout)
	if err != nil {
		log.Fatalf("Invalid chain timeout: %v", err)
	}

	// Initialize database
	db, err := store.NewSqliteStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "err", closeErr)
		}
	}()

	if len(*adminAPIKey) == 0 {
		slog.Error("no admin API key provided - cannot start")
		return
	}
	if err = hashAndStoreKey(db, "admin_api_key", *adminAPIKey); err != nil {
		slog.Error("failed to hash admin API key", "err", err)
		return
	}

	// Restore the registry and ledger from the last snapshot
	registry := credential.NewRegistry(credential.Identity(*owner))
	certs, err := db.LoadCertificates()
	if err != nil {
		log.Fatalf("Failed to load certificates: %v", err)
	}
	registry.Restore(certs)
	slog.Info("registry restored", "owner", *owner, "certificates", len(certs))

	ledger := verification.NewLedger()
	records, err := db.LoadRecords()
	if err != nil {
		log.Fatalf("Failed to load verification records: %v", err)
	}
	ledger.Restore(records)
	slog.Info("ledger restored", "records", len(records))

	adminService := admin.NewService()
	transactions, err := db.LoadTransactions()
	if err != nil {
		log.Fatalf("Failed to load transactions: %v", err)
	}
	adminService.Restore(transactions)
	slog.Info("transaction log restored", "transactions", len(transactions))

	// Pick the chain lookup implementation
	var chain verification.ChainLookup
	if *chainRPC != "" {
		rpcChain, err := verification.DialChain(*chainRPC, lookupTimeout)
		if err != nil {
			log.Fatalf("Failed to dial chain RPC: %v", err)
		}
		defer rpcChain.Close()
		chain = rpcChain
		slog.Info("using chain RPC for transaction lookups", "endpoint", *chainRPC)
	} else {
		chain = &verification.SimulatedChainLookup{Prefix: "0x", Delay: 500 * time.Millisecond}
		slog.Warn("no chain RPC configured, using simulated transaction lookups")
	}

	// Pick the hash validator implementation
	var hashes verification.HashValidator
	if *recognizedHashes != "" {
		allowlist, err := verification.ParseAllowlist(*recognizedHashes)
		if err != nil {
			log.Fatalf("Invalid recognized hashes: %v", err)
		}
		hashes = verification.NewAllowlistValidator(allowlist)
		slog.Info("using transcript hash allowlist", "entries", len(allowlist))
	} else {
		hashes = &verification.SimulatedHashValidator{Prefix: "abc"}
		slog.Warn("no recognized hashes configured, using simulated hash validation")
	}

	reporter := metrics.NewPrometheusReporter()
	service := verification.NewService(chain, hashes, ledger, reporter)

	// Metrics updater recomputes gauges on API activity
	updater := metrics.NewUpdater(reporter, func() metrics.Totals {
		return metrics.Totals{
			Records:      ledger.Len(),
			Certificates: registry.Len(),
			Revoked:      registry.RevokedCount(),
		}
	})
	updater.Start(ctx)
	updater.UpdateMetrics()

	// Start the snapshot scheduler
	save := func() error {
		if err := db.SaveCertificates(registry.Snapshot()); err != nil {
			return err
		}
		if err := db.SaveRecords(ledger.List()); err != nil {
			return err
		}
		return db.SaveTransactions(adminService.All())
	}
	scheduler, err := snapshot.NewScheduler(ctx, save, interval)
	if err != nil {
		log.Fatalf("Failed to create snapshot scheduler: %v", err)
	}
	scheduler.Start()

	// Create health service with root context
	healthService := health.NewService(ctx)

	// Register HTTP handlers
	verificationAPI := verification.NewAPIServer(service, updater)
	verificationAPI.RegisterHandlers()

	credentialAPI := credential.NewAPIServer(registry, db, scheduler, updater)
	credentialAPI.RegisterHandlers()

	adminAPI := admin.NewAPIServer(adminService, db)
	adminAPI.RegisterHandlers()

	healthAPI := health.NewApi(healthService)
	healthAPI.RegisterHandlers()

	reporter.WireUpHttpMetrics()

	// Start HTTP server with cancellation context
	httpServer := &http.Server{
		Addr:    *httpAddr,
		Handler: http.DefaultServeMux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		slog.Info("http server listening", "address", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		slog.Info("received shutdown signal")
	case <-ctx.Done():
		slog.Info("context cancelled")
	}

	slog.Info("shutting down...")
	healthService.Shutdown()

	// Cancel the root context to signal all components
	cancel()

	// Create a shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})

	go func() {
		// Persist whatever the scheduler has not flushed yet
		if err := save(); err != nil {
			slog.Error("final snapshot save failed", "err", err)
		} else {
			slog.Info("final snapshot saved")
		}

		// Graceful shutdown of HTTP server; waits for active requests
		slog.Info("shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "err", err)
		}
		slog.Info("HTTP server shut down")

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		slog.Info("graceful shutdown completed")
	case <-shutdownCtx.Done():
		slog.Warn("shutdown timeout exceeded, forcing shutdown")
	}

	slog.Info("shutdown complete")
}

func hashAndStoreKey(db *store.SqliteStore, dbKey string, key string) error {
	hashedKey, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.SetCredential(dbKey, string(hashedKey))
}
