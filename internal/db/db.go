package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"onebite/internal/logger"
)

// Open 按驱动名连接数据库并自动迁移表结构
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Database connection established", zap.String("driver", driver))

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate 自动迁移
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&PostRecord{},
		&PostLikeRecord{},
		&CommentRecord{},
		&RateCounterRecord{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Database migration completed")
	return nil
}
