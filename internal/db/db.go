package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emberhq/ember-api/internal/config"
)

// Models lists every persisted entity, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{}, &Swipe{}, &Match{}, &Conversation{}, &Message{},
		&Block{}, &UserPhoto{}, &Prompt{}, &Report{}, &Boost{},
	}
}

// NewDB initializes the database connection using DSN from config.
// TranslateError is required: the swipe/match workflow relies on
// gorm.ErrDuplicatedKey to resolve uniqueness races.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
