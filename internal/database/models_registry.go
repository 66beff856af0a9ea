package database

import "bizzy/internal/models"

// PersistentModels returns the schema-managed GORM models in dependency order.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Session{},
		&models.Account{},
		&models.Follow{},
		&models.SavedPlace{},
		&models.PlaceReview{},
		&models.ReviewLike{},
	}
}
