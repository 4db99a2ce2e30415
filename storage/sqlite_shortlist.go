package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agriconnect/models"
)

// SQLiteShortlist stores favorites and wishlists in a local SQLite file. It
// implements both FavoritesRepository and WishlistRepository.
type SQLiteShortlist struct {
	db *gorm.DB
}

func NewSQLiteShortlist(path string) (*SQLiteShortlist, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.AutoMigrate(&models.Favorite{}, &models.WishlistItem{}); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("sqlite: automigrate: %w", err)
	}
	return &SQLiteShortlist{db: db}, nil
}

func (s *SQLiteShortlist) ToggleFavorite(ctx context.Context, userID, farmID string) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND farm_id = ?", userID, farmID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&models.Favorite{UserID: userID, FarmID: farmID}).Error
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: toggle favorite: %w", err)
	}
	return added, nil
}

func (s *SQLiteShortlist) IsFavorite(ctx context.Context, userID, farmID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND farm_id = ?", userID, farmID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("sqlite: favorite lookup: %w", err)
	}
	return n > 0, nil
}

// ListFavorites returns farm ids in the order they were favorited.
func (s *SQLiteShortlist) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ?", userID).Order("id").Pluck("farm_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list favorites: %w", err)
	}
	return ids, nil
}

func (s *SQLiteShortlist) ClearFavorites(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("sqlite: clear favorites: %w", err)
	}
	return nil
}

func (s *SQLiteShortlist) AddToWishlist(ctx context.Context, userID, farmID, cropType string) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.WishlistItem
		err := tx.Where("user_id = ? AND farm_id = ? AND crop_type = ?", userID, farmID, cropType).
			Take(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		added = true
		return tx.Create(&models.WishlistItem{
			ID:        uuid.NewString(),
			UserID:    userID,
			FarmID:    farmID,
			CropType:  cropType,
			AddedDate: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: add to wishlist: %w", err)
	}
	return added, nil
}

func (s *SQLiteShortlist) RemoveFromWishlist(ctx context.Context, userID, farmID, cropType string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND farm_id = ? AND crop_type = ?", userID, farmID, cropType).
		Delete(&models.WishlistItem{}).Error
	if err != nil {
		return fmt.Errorf("sqlite: remove from wishlist: %w", err)
	}
	return nil
}

func (s *SQLiteShortlist) IsInWishlist(ctx context.Context, userID, farmID, cropType string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND farm_id = ? AND crop_type = ?", userID, farmID, cropType).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("sqlite: wishlist lookup: %w", err)
	}
	return n > 0, nil
}

// ListWishlist returns items oldest first.
func (s *SQLiteShortlist) ListWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("added_date").Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list wishlist: %w", err)
	}
	return items, nil
}

func (s *SQLiteShortlist) ClearWishlist(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error; err != nil {
		return fmt.Errorf("sqlite: clear wishlist: %w", err)
	}
	return nil
}

func (s *SQLiteShortlist) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
