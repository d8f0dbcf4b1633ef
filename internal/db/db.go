package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ai-doc-authoring/internal/config"
	"ai-doc-authoring/internal/domain"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the postgres connection string from cfg.
func DSN(cfg config.Config) string {
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)
}

func Connect(cfg config.Config) (*gorm.DB, error) {
	level := logger.Info
	if cfg.Environment == "production" {
		level = logger.Error
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  cfg.Environment == "development",
		},
	)

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the schema, including the unique
// (project_id, order_index) and (section_id, seq) indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Project{},
		&domain.Section{},
		&domain.HistoryEntry{},
		&domain.Comment{},
	)
}

// Registrar is the part of the user service the seed needs.
type Registrar interface {
	Register(ctx context.Context, user *domain.User) error
}

// SeedData creates the development user unless it already exists.
func SeedData(ctx context.Context, users Registrar, logger zerolog.Logger) {
	testUser := &domain.User{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}
	if err := users.Register(ctx, testUser); err != nil {
		logger.Info().Err(err).Str("email", testUser.Email).Msg("test user not created")
		return
	}
	logger.Info().Str("email", testUser.Email).Msg("created test user")
}
