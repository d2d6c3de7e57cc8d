// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Dbal is the entry point for the DBAL daemon.

The daemon fronts one active storage backend at a time behind a uniform
RESTful + RPC surface, performing schema-aware generic CRUD, transactional
batches, and a tenant-scoped blob facade.

Usage:

	go run cmd/dbal/main.go [flags]

The flags/environment variables are documented in internal/platform/config.

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables / flags / YAML file.
 3. Adapter registry: register all 13 backend constructors, warm the active one.
 4. Migrations: best-effort golang-migrate run for pgx5-compatible adapters.
 5. Blob backend: select memory/filesystem/S3 per configuration.
 6. Collaborator wiring: rate limiter, schema registry, admin/schema/rpc handlers.
 7. Server: bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/cassandraadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/cockroachadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/dynamodbadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/esadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/mongoadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/mysqladapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/postgresadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/prismaadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/redisadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/registry"
	"github.com/meridiandb/dbal/internal/dbal/adapter/sqliteadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/supabaseadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/surrealadapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/tidbadapter"
	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/dbal/blob/fsblob"
	"github.com/meridiandb/dbal/internal/dbal/blob/memoryblob"
	"github.com/meridiandb/dbal/internal/dbal/blob/s3blob"
	"github.com/meridiandb/dbal/internal/dbal/handler/admin"
	"github.com/meridiandb/dbal/internal/dbal/handler/batch"
	"github.com/meridiandb/dbal/internal/dbal/handler/bulk"
	"github.com/meridiandb/dbal/internal/dbal/handler/crud"
	"github.com/meridiandb/dbal/internal/dbal/handler/list"
	"github.com/meridiandb/dbal/internal/dbal/handler/rpc"
	"github.com/meridiandb/dbal/internal/dbal/handler/schema"
	"github.com/meridiandb/dbal/internal/dbal/ratelimit"
	"github.com/meridiandb/dbal/internal/dbal/schemareg"
	"github.com/meridiandb/dbal/internal/dbalapi"
	"github.com/meridiandb/dbal/internal/platform/config"
	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/migration"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	log.Info("dbal_service_initializing")

	// # 2. Configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.IsDevelopment() {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
	}
	log.Info("configuration_loaded",
		slog.String("mode", cfg.Mode),
		slog.String("adapter", cfg.Adapter),
		slog.String("port", cfg.Port),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. Adapter Registry
	reg := registry.New(adapter.Config{Adapter: cfg.Adapter, DatabaseURL: cfg.DatabaseURL})
	reg.Register(adapter.TagSQLite, sqliteadapter.New)
	reg.Register(adapter.TagPostgres, postgresadapter.New)
	reg.Register(adapter.TagMySQL, mysqladapter.New)
	reg.Register(adapter.TagMongoDB, mongoadapter.New)
	reg.Register(adapter.TagRedis, redisadapter.New)
	reg.Register(adapter.TagElastic, esadapter.New)
	reg.Register(adapter.TagCassandra, cassandraadapter.New)
	reg.Register(adapter.TagSurrealDB, surrealadapter.New)
	reg.Register(adapter.TagSupabase, supabaseadapter.New)
	reg.Register(adapter.TagPrisma, prismaadapter.New)
	reg.Register(adapter.TagDynamoDB, dynamodbadapter.New)
	reg.Register(adapter.TagCockroachDB, cockroachadapter.New)
	reg.Register(adapter.TagTiDB, tidbadapter.New)

	if _, err := reg.EnsureClient(startupCtx); err != nil {
		return fmt.Errorf("construct initial adapter %q: %w", cfg.Adapter, err)
	}
	log.Info("adapter_ready", slog.String("adapter", cfg.Adapter))

	// # 4. Migrations — golang-migrate only understands the pgx5 family
	// (postgres and cockroachdb speak the wire protocol pgx dials);
	// every other adapter manages its own schema or needs none, so this
	// step is skipped entirely rather than forced through a driver that
	// cannot open the connection.
	if isPgxCompatible(cfg.Adapter) {
		migrationsPath := filepath.Join(filepath.Dir(cfg.SchemaRegistryPath), "migrations")
		if _, statErr := os.Stat(migrationsPath); statErr == nil {
			if err := migration.RunUp(cfg.DatabaseURL, migrationsPath, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		} else {
			log.Info("migrations_skipped_no_directory", slog.String("path", migrationsPath))
		}
	}

	// # 5. Blob Backend
	blobBackend, err := buildBlobBackend(startupCtx, cfg)
	if err != nil {
		return fmt.Errorf("construct blob backend: %w", err)
	}

	// # 6. Collaborator Wiring
	limiter := ratelimit.New()
	defer limiter.Stop()

	schemaRegistry := schemareg.New(cfg.SchemaRegistryPath)

	handlers := dbalapi.Handlers{
		Admin:  admin.NewHandler(reg, cfg.SeedDir),
		Schema: schema.NewHandler(schemaRegistry, cfg.PackagesPath, cfg.PrismaOutputPath),
		RPC:    rpc.NewHandler(),
		Blob:   blob.NewHandler(blobBackend),
		CRUD:   crud.NewHandler(),
		List:   list.NewHandler(),
		Bulk:   bulk.NewHandler(),
		Batch:  batch.NewHandler(),
	}

	// # 7. Server Assembly
	server := dbalapi.NewServer(cfg, cfg.BindAddress+":"+cfg.Port, log, reg, limiter, cfg.AdminToken, handlers)

	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("dbal_running", slog.String("bind_address", cfg.BindAddress), slog.String("port", cfg.Port))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	log.Info("shutting_down_dbal_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

// isPgxCompatible reports whether tag speaks the same wire protocol
// golang-migrate's pgx/v5 driver dials.
func isPgxCompatible(tag string) bool {
	switch tag {
	case adapter.TagPostgres, adapter.TagCockroachDB:
		return true
	default:
		return false
	}
}

// buildBlobBackend selects the configured blob backend. memory is the
// default; filesystem and s3 are both fully wired since SPEC_FULL.md
// requires all three to be reachable from configuration, not just memory.
func buildBlobBackend(ctx context.Context, cfg *config.Config) (blob.Backend, error) {
	switch cfg.BlobBackend {
	case "filesystem":
		if err := os.MkdirAll(cfg.BlobRoot, 0o755); err != nil {
			return nil, fmt.Errorf("create blob root %q: %w", cfg.BlobRoot, err)
		}
		return fsblob.New(cfg.BlobRoot), nil

	case "s3":
		return s3blob.New(ctx, s3blob.Config{
			Endpoint:  cfg.BlobURL,
			Bucket:    cfg.BlobBucket,
			Region:    cfg.BlobRegion,
			AccessKey: cfg.BlobAccessKey,
			SecretKey: cfg.BlobSecretKey,
			PathStyle: cfg.BlobPathStyle,
		})

	default:
		return memoryblob.New(), nil
	}
}
