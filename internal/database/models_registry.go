package database

import "unnest/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// User must precede Post so the foreign key target exists.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
	}
}
