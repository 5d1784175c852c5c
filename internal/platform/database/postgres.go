package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algoarena/internal/platform/config"
	"algoarena/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

var DB *sql.DB

// Connect opens the pool described by cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) error {
	db, err := sql.Open("pgx", cfg.DBConnStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("connect database: %w", err)
	}

	DB = db
	logger.Info(ctx, "connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return nil
}

func Close() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			logger.Warn(context.Background(), "closing database", zap.Error(err))
			return
		}
		logger.Info(context.Background(), "database connection closed")
	}
}
