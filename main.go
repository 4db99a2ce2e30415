package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"agriconnect/api"
	"agriconnect/config"
	"agriconnect/models"
	"agriconnect/services"
	"agriconnect/storage"
	"agriconnect/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== AgriConnect farm discovery starting (mode: %s) ===", cfg.Mode)

	var err error
	switch cfg.Mode {
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "import":
		err = runImport(ctx, cfg, logger)
	case "report":
		err = runReport(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown MODE %q (want serve, import or report)", cfg.Mode)
	}
	if err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	source, closeSource, err := openCatalogSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer closeSource()

	snapshot := storage.NewSnapshot(source, retryConfig(cfg, logger), logger)
	if err := snapshot.Refresh(ctx); err != nil {
		return err
	}
	if err := snapshot.StartRefresher(cfg.CatalogRefresh); err != nil {
		return err
	}
	defer snapshot.Stop()

	shortlist, err := storage.NewSQLiteShortlist(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer shortlist.Close()

	var cache storage.InsightCache
	if cfg.RedisAddr != "" {
		rc, err := storage.NewRedisInsightCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("Insight cache disabled: %v", err)
		} else {
			defer rc.Close()
			cache = rc
			snapshot.OnRefresh(func([]*models.Farm) {
				if err := rc.Invalidate(context.Background(), api.InsightCacheKey()); err != nil {
					logger.Warn("Insight cache invalidation failed: %v", err)
				}
			})
		}
	}

	if logger.Level() > utils.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &api.Server{
		Catalog:   snapshot,
		Favorites: shortlist,
		Wishlist:  shortlist,
		Cache:     cache,
		Insights:  services.NewInsightService(logger),
		Logger:    logger,
		Options: api.Options{
			MapPadding:      cfg.MapPadding,
			InsightCacheTTL: time.Duration(cfg.InsightCacheTTL) * time.Second,
			CORSOrigins:     cfg.CORSOrigins,
		},
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving %d farms on :%s", snapshot.Len(), cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runImport(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	defer csvWriter.Close()

	writer, err := openCatalogWriter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.ImportTarget, err)
	}
	defer writer.Close()

	rawFarms, err := openRawSource(cfg, logger).LoadRaw(ctx)
	if err != nil {
		logger.Error("Raw load failed: %v", err)
	}
	if len(rawFarms) == 0 {
		return errors.New("no farms were collected")
	}

	logger.Info("Collected %d raw farms — writing to CSV...", len(rawFarms))
	if err := csvWriter.WriteRaw(rawFarms); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Raw farms saved to %s", cfg.CSVOutputPath)
	}

	cleaner := services.NewCleaner(logger)
	farms := cleaner.Clean(rawFarms)
	if len(farms) == 0 {
		return errors.New("all farms were dropped during cleaning")
	}
	logger.Info("Cleaned dataset: %d farms", len(farms))

	if err := writer.Write(ctx, farms); err != nil {
		logger.Error("%s write failed: %v", cfg.ImportTarget, err)
	} else {
		logger.Info("Clean catalog stored in %s", cfg.ImportTarget)
	}

	stored := farms
	if src, ok := writer.(storage.CatalogSource); ok {
		if reloaded, err := src.Load(ctx); err != nil {
			logger.Error("Failed to reload catalog for insights: %v", err)
		} else {
			stored = reloaded
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(stored))

	fmt.Printf("  Done. Raw CSV → %s | Clean catalog → %s\n\n", cfg.CSVOutputPath, cfg.ImportTarget)
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	source, closeSource, err := openCatalogSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer closeSource()

	farms, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(farms))
	return nil
}
