package config

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/snap-point/articles-api/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection pool. The lib/pq driver is used under
// the gorm dialector so constraint errors surface as *pq.Error.
func InitDB(cfg DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSNString(),
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected",
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
	)
	return db, nil
}

// CloseDB closes the connection pool behind db.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// Migrate creates or updates the articles and likes tables, including the
// unique (article_id, user_id) index the like toggle relies on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Article{}, &models.Like{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// NewGormLogger routes gorm's warnings and slow queries through zap.
// Missing-row lookups are expected on the like path and are not logged.
func NewGormLogger(log *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}
