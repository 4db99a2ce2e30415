package models

import "time"

// Favorite marks a farm as a user's favorite.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_favorite_user_farm" json:"userId"`
	FarmID    string    `gorm:"uniqueIndex:idx_favorite_user_farm" json:"farmId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WishlistItem is a (farm, crop type) pair a user wants to be reminded of.
type WishlistItem struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_wishlist_user_farm_crop" json:"userId"`
	FarmID    string    `gorm:"uniqueIndex:idx_wishlist_user_farm_crop" json:"farmId"`
	CropType  string    `gorm:"uniqueIndex:idx_wishlist_user_farm_crop" json:"cropType"`
	AddedDate time.Time `json:"addedDate"`
}
