package storage

import (
	"context"
	"errors"
	"time"

	"agriconnect/models"
)

// ErrFarmNotFound is returned when a farm id is not in the catalog.
var ErrFarmNotFound = errors.New("farm not found")

// CatalogSource loads the cleaned farm catalog from a backend.
type CatalogSource interface {
	Load(ctx context.Context) ([]*models.Farm, error)
}

// CatalogWriter is the interface any catalog store must satisfy. Write
// replaces the stored catalog.
type CatalogWriter interface {
	Write(ctx context.Context, farms []*models.Farm) error
	Close() error
}

// RawSource yields unprocessed farm rows, before cleaning.
type RawSource interface {
	LoadRaw(ctx context.Context) ([]*models.RawFarm, error)
}

// RawFarmWriter is the interface for persisting unprocessed farm data.
type RawFarmWriter interface {
	WriteRaw(farms []*models.RawFarm) error
	Close() error
}

// FavoritesRepository persists each user's set of favorite farm ids.
type FavoritesRepository interface {
	// ToggleFavorite adds the farm if absent and removes it otherwise. It
	// reports whether the farm is a favorite afterwards.
	ToggleFavorite(ctx context.Context, userID, farmID string) (bool, error)
	IsFavorite(ctx context.Context, userID, farmID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]string, error)
	ClearFavorites(ctx context.Context, userID string) error
}

// WishlistRepository persists each user's set of (farm, crop type) pairs.
type WishlistRepository interface {
	// AddToWishlist reports false when the pair is already present.
	AddToWishlist(ctx context.Context, userID, farmID, cropType string) (bool, error)
	RemoveFromWishlist(ctx context.Context, userID, farmID, cropType string) error
	IsInWishlist(ctx context.Context, userID, farmID, cropType string) (bool, error)
	ListWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error)
	ClearWishlist(ctx context.Context, userID string) error
}

// InsightCache stores rendered insight reports. A miss is (nil, false, nil).
type InsightCache interface {
	Get(ctx context.Context, key string) (*models.InsightReport, bool, error)
	Set(ctx context.Context, key string, report *models.InsightReport, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}
