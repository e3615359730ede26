package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chunk-transfer/internal/adapters/eventbroker/nats"
	"chunk-transfer/internal/adapters/eventbroker/noop"
	"chunk-transfer/internal/adapters/handlers/http/chi"
	file2 "chunk-transfer/internal/adapters/handlers/http/chi/v1/file"
	"chunk-transfer/internal/adapters/locker"
	fsrepo "chunk-transfer/internal/adapters/repository/filesystem"
	"chunk-transfer/internal/adapters/repository/postgres"
	fsstorage "chunk-transfer/internal/adapters/storage/filesystem"
	"chunk-transfer/internal/adapters/storage/minio"
	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/port"
	"chunk-transfer/internal/core/service/cleanup"
	"chunk-transfer/internal/core/service/file"

	_ "github.com/joho/godotenv/autoload"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	//metadata
	var metadataRepo port.UploadMetadataRepository
	switch cfg.Storage.MetadataBackend {
	case config.BackendPostgres:
		db, err := initDB(cfg.Database)
		if err != nil {
			logger.Error("failed to init database", "error", err)
			os.Exit(1)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}(db)
		logger.Info("db connection established")
		metadataRepo = postgres.NewSQLUploadMetadataRepository(db)
	default:
		metadataRepo, err = fsrepo.NewUploadMetadataRepository(cfg.Storage.Root, logger)
		if err != nil {
			logger.Error("failed to init metadata store", "error", err)
			os.Exit(1)
		}
	}

	//storage
	var chunkStore port.ChunkStore
	switch cfg.Storage.ChunkBackend {
	case config.BackendMinio:
		chunkStore, err = minio.NewAdapter(ctx, cfg.Minio, logger)
		if err != nil {
			logger.Error("failed to init minio", "error", err)
			os.Exit(1)
		}
	default:
		chunkStore, err = fsstorage.NewChunkStore(cfg.Storage.StagingRoot, logger)
		if err != nil {
			logger.Error("failed to init chunk store", "error", err)
			os.Exit(1)
		}
	}

	artifacts, err := fsstorage.NewArtifactStore(cfg.Storage.Root, logger)
	if err != nil {
		logger.Error("failed to init artifact store", "error", err)
		os.Exit(1)
	}

	//events
	publisher, err := initPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	uploadLocker := locker.NewKeyedLocker()

	fileService := file.NewFileService(metadataRepo, chunkStore, artifacts, uploadLocker, publisher, cfg.Storage, logger)
	cleanupService := cleanup.NewCleanupService(metadataRepo, chunkStore, artifacts, uploadLocker, publisher, cfg.Cleanup.StaleAfter, uint64(cfg.Storage.MaxFileSize), logger)

	//http
	fileHandler := file2.NewFileHandlerV1(fileService, cfg.Storage.MaxChunkSize.Int64(), logger)

	router := chi.NewRouter(logger, fileHandler, cfg.Auth, cfg.Env.Env)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"metadata_backend", cfg.Storage.MetadataBackend,
			"chunk_backend", cfg.Storage.ChunkBackend,
			"max_chunk_size", cfg.Storage.MaxChunkSize.String(),
		)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// init cleanup task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initCleanupTask(ctx, cleanupService, cfg.Cleanup.Every, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

func initPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (port.EventPublisher, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL not set, upload events are dropped")
		return noop.NewPublisher(logger), nil
	}
	return nats.NewNATSPublisher(ctx, cfg, logger)
}

func initCleanupTask(ctx context.Context, service port.CleanupService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("cleanup task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			logger.Info("cleanup task starting")
			if err := service.ReclaimStaleUploads(ctx, time.Now().UTC()); err != nil {
				logger.Error("failed to reclaim stale uploads", "error", err)
			}
			if err := service.PurgeOrphanedChunks(ctx); err != nil {
				logger.Error("failed to purge orphaned chunks", "error", err)
			}
			logger.Info("cleanup task completed")
		case <-ctx.Done():
			logger.Info("cleanup task stopped")
			return
		}
	}

}
