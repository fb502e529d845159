package database

import "mutualaid/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Referenced tables come before the tables that reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Country{},
		&models.Location{},
		&models.Category{},
		&models.User{},
		&models.Post{},
		&models.Image{},
		&models.Media{},
		&models.Like{},
		&models.Favorite{},
		&models.Comment{},
		&models.Follow{},
		&models.Message{},
		&models.Collection{},
	}
}
