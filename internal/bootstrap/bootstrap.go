// Package bootstrap assembles the face pipeline from configuration. The HTTP
// server and the CLI both start here so they share one set of model handles,
// one store and one renderer.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/saturnino-fabrica-de-software/faceid/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceid/internal/config"
	"github.com/saturnino-fabrica-de-software/faceid/internal/database"
	"github.com/saturnino-fabrica-de-software/faceid/internal/face"
	"github.com/saturnino-fabrica-de-software/faceid/internal/media"
	"github.com/saturnino-fabrica-de-software/faceid/internal/metrics"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceid/internal/render"
	"github.com/saturnino-fabrica-de-software/faceid/internal/service"
	"github.com/saturnino-fabrica-de-software/faceid/internal/store"
)

// Pipeline is a ready FaceService and the resources behind it
type Pipeline struct {
	Service *service.FaceService
	Store   store.Store
	Models  *provider.Models
	Media   *media.LocalWriter

	closers []func() error
}

// Option customizes how the pipeline is built
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	models     *provider.Models
}

// WithRegisterer records pipeline metrics in reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithModels injects prebuilt model handles instead of building them from cfg.
// The pipeline takes ownership and closes them.
func WithModels(models *provider.Models) Option {
	return func(o *options) { o.models = models }
}

// New builds the pipeline described by cfg. On error every resource opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (p *Pipeline, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p = &Pipeline{}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()

	models := o.models
	if models == nil {
		models, err = face.NewModels(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init models: %w", err)
		}
	}
	p.Models = models
	p.closers = append(p.closers, models.Close)

	p.Store, err = openStore(ctx, cfg, logger, p)
	if err != nil {
		return nil, err
	}

	p.Media, err = media.NewLocalWriter(cfg.MediaDir, cfg.MediaURLPrefix)
	if err != nil {
		return nil, err
	}

	overlays, err := render.LoadOverlays(cfg.OverlayDir, cfg.OverlayManifest, logger)
	if err != nil {
		return nil, fmt.Errorf("load overlays: %w", err)
	}
	logger.Info("overlays loaded", slog.Any("names", overlays.Names()))

	p.Service = service.NewFaceService(models, p.Store, p.Media, render.NewMasker(overlays, cfg.BlurSigma)).
		WithLogger(logger)

	if o.registerer != nil {
		p.Service.WithMetrics(metrics.New(o.registerer))
	}
	if cfg.AuditEnabled {
		p.Service.WithAudit(audit.NewSlogLogger(logger))
	}

	return p, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *Pipeline) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, func() error {
			pool.Close()
			return nil
		})
		logger.Info("embedding store ready", slog.String("backend", config.StorePostgres))
		return store.NewPostgresStore(pool), nil

	default:
		fs, err := store.NewFileStore(cfg.EmbeddingDir)
		if err != nil {
			return nil, err
		}
		logger.Info("embedding store ready",
			slog.String("backend", config.StoreFile),
			slog.String("dir", cfg.EmbeddingDir),
		)
		return fs, nil
	}
}

// Close releases resources in reverse order of acquisition
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
