package repository

import (
	"fmt"

	"gorm.io/gorm"

	"wellnesshub/internal/model"
)

// AutoMigrate creates or updates the tables used by the gorm-backed stores.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Session{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
