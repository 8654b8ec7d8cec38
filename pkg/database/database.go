package database

import (
	"fmt"

	"tender-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the connection shared by the whole process.
var DB *gorm.DB

// InitDB opens the Postgres connection described by the configuration
// and installs it as the global instance.
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN: dbConfig.GetDSN(),
		// Simple protocol keeps the driver compatible with connection
		// poolers that cannot track prepared statements.
		PreferSimpleProtocol: true,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(dbConfig.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	DB = db
	return DB, nil
}

// MigrateModels runs auto-migrations for the provided models.
func MigrateModels(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	return nil
}

// SetDB replaces the global database instance. Used by tests and the
// seed command to point the service at an alternate connection.
func SetDB(db *gorm.DB) {
	DB = db
}

// GetDB returns the shared connection.
func GetDB() *gorm.DB {
	return DB
}
