package db

import (
	"fmt"
	"time"
	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch cfg.DBDriver {
	case "sqlite":
		conn, err = OpenSQLite(cfg.SQLitePath, gormCfg)
	default:
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	log.WithField("driver", cfg.DBDriver).Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return conn, nil
}

// OpenSQLite opens a sqlite database with foreign keys enforced. A path of
// ":memory:" yields a private in-memory database on a single connection.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	dsn := path + "?_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	conn, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway; one connection keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedGroups inserts the given groups, skipping slugs that already exist.
func SeedGroups(conn *gorm.DB, groups []models.Group) (int, error) {
	created := 0
	for _, g := range groups {
		var count int64
		if err := conn.Model(&models.Group{}).Where("slug = ?", g.Slug).Count(&count).Error; err != nil {
			return created, fmt.Errorf("seed group %s: %w", g.Slug, err)
		}
		if count > 0 {
			continue
		}
		group := g
		if err := conn.Create(&group).Error; err != nil {
			return created, fmt.Errorf("seed group %s: %w", g.Slug, err)
		}
		created++
	}
	return created, nil
}
