package database

import (
	"fmt"
	"os"
	"time"

	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "artfolio")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := gormlogger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("✅ Database connected successfully")

	return nil
}

// Close closes the underlying connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		logger.WarnWithFields("Could not create uuid-ossp extension", err)
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.WorkVersion{},
		&models.Thread{},
		&models.WorkThread{},
		&models.Comment{},
		&models.Notification{},
		&models.DetectionEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Work indexes for feed queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_works_author_created ON works (author_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_works_published_created ON works (is_published, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_works_primary_thread ON works (primary_thread_id) WHERE primary_thread_id IS NOT NULL")

	// Comment indexes for efficient retrieval
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_work_created ON comments (work_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_work_not_deleted ON comments (work_id, created_at DESC) WHERE is_deleted = false")

	// Version history lookup
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_work_versions_work ON work_versions (work_id, version_number DESC)")

	// Detection audit queries group by outcome over time
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_detection_events_outcome_created ON detection_events (outcome, created_at DESC)")

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
