// Package bootstrap wires the process-wide stores used by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/docstore"
	"inkwell/internal/middleware"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with generated posts and comments.
	SeedDemo bool
}

// Runtime holds the connections shared by the server and the tools.
type Runtime struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Images repository.ImageRepository

	mongo        bool
	closeTracing func(context.Context) error
}

// InitRuntime connects the database, Redis and (when configured) the document
// store used for images. A missing Redis is tolerated: caching, rate limits
// and live comments fall back to in-process behavior.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	closeTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  observability.DefaultServiceName,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client if Redis is unreachable.
	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{DB: db, Redis: cache.GetClient(), closeTracing: closeTracing}

	switch cfg.ImageStore {
	case config.ImageStoreMongo:
		if err := docstore.Init(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
			return nil, fmt.Errorf("document store connection failed: %w", err)
		}
		rt.Images = repository.NewMongoImageRepository(docstore.Database())
		rt.mongo = true
	default:
		rt.Images = repository.NewImageRepository(db)
	}

	if opts.SeedDemo {
		if _, err := seed.Run(ctx, db, seed.DefaultOptions()); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	middleware.Logger.Info("runtime initialized",
		slog.String("image_store", cfg.ImageStore),
		slog.Bool("redis", rt.Redis != nil),
	)
	return rt, nil
}

// Close releases every connection opened by InitRuntime.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.mongo {
		if err := docstore.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close document store: %w", err))
		}
	}
	if err := database.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if r.closeTracing != nil {
		if err := r.closeTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}
