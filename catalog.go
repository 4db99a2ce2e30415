package main

import (
	"context"
	"fmt"
	"time"

	"agriconnect/config"
	"agriconnect/models"
	"agriconnect/scraper/marketplace"
	"agriconnect/services"
	"agriconnect/storage"
	"agriconnect/utils"
)

// cleanedSource turns a raw source into a catalog source by running every
// load through the cleaner.
type cleanedSource struct {
	raw     storage.RawSource
	cleaner *services.Cleaner
}

func (s cleanedSource) Load(ctx context.Context) ([]*models.Farm, error) {
	raw, err := s.raw.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}
	return s.cleaner.Clean(raw), nil
}

func retryConfig(cfg *config.Config, logger *utils.Logger) utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
}

// openRawSource picks the spreadsheet when CATALOG_SOURCE=xlsx and the
// marketplace scraper otherwise.
func openRawSource(cfg *config.Config, logger *utils.Logger) storage.RawSource {
	if cfg.CatalogSource == "xlsx" {
		logger.Info("Reading raw farms from %s", cfg.CatalogXLSXPath)
		return storage.NewXLSXCatalog(cfg.CatalogXLSXPath, "")
	}
	return marketplace.New(cfg, logger)
}

// openCatalogSource returns the configured catalog backend and a close func.
func openCatalogSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.CatalogSource, func() error, error) {
	noop := func() error { return nil }

	switch cfg.CatalogSource {
	case "json":
		return storage.NewJSONCatalog(cfg.CatalogJSONPath), noop, nil
	case "xlsx", "scrape":
		return cleanedSource{raw: openRawSource(cfg, logger), cleaner: services.NewCleaner(logger)}, noop, nil
	case "postgres":
		pc, err := storage.NewPostgresCatalog(ctx, cfg.DSN(), retryConfig(cfg, logger))
		if err != nil {
			return nil, nil, err
		}
		return pc, pc.Close, nil
	case "mongo":
		mc, err := storage.NewMongoCatalog(ctx, cfg.MongoURI, cfg.MongoDB, retryConfig(cfg, logger))
		if err != nil {
			return nil, nil, err
		}
		return mc, mc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}
}

func openCatalogWriter(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.CatalogWriter, error) {
	switch cfg.ImportTarget {
	case "postgres":
		return storage.NewPostgresCatalog(ctx, cfg.DSN(), retryConfig(cfg, logger))
	case "mongo":
		return storage.NewMongoCatalog(ctx, cfg.MongoURI, cfg.MongoDB, retryConfig(cfg, logger))
	case "json":
		return storage.NewJSONCatalog(cfg.CatalogJSONPath), nil
	default:
		return nil, fmt.Errorf("unknown IMPORT_TARGET %q", cfg.ImportTarget)
	}
}
