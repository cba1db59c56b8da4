// Command invoxd runs the invox access-control and audit server.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/api"
	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/config"
	"github.com/invoxlabs/invox/internal/db"
	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/rbac"
	"github.com/invoxlabs/invox/internal/snapshot"
	"github.com/invoxlabs/invox/internal/store"
	"github.com/invoxlabs/invox/internal/tenants"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), dbpool.DefaultDirectoryOptions())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.MigrateDirectory(ctx, cfg.DatabaseURL.Value(), log); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	directory := store.NewDirectoryStore(base)
	roles := store.NewRoleStore(base)
	auditStore := store.NewAuditStore(base)

	mux := tenants.NewMultiplexer(directory, nil, log)
	defer mux.Close()

	worker := audit.NewWorker(auditStore, log, cfg.AuditQueueSize)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	auditSvc := audit.NewService(auditStore, worker, log, cfg.AuditExportCap)
	rbacSvc := rbac.NewService(roles, directory, log)
	engine := snapshot.NewEngine(mux, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Roles:       rbacSvc,
		Audit:       auditSvc,
		Backups:     engine,
		Tenants:     directory,
		Handles:     mux,
		Queue:       worker,
		ActorLookup: directory,
		Checker:     rbacSvc,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
	})

	addr := net.JoinHostPort(cfg.ListenHost, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "version": version}).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("http shutdown")
	}

	// The worker drains its queue after ctx cancellation; wait for it so
	// enqueued audit entries reach the store before the pool closes.
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("audit worker drain timed out")
	}

	return nil
}
