package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/config"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BuildDSN(cfg *config.DB) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == "postgres" {
		host := cfg.Host
		if cfg.InstanceConnectionName != "" {
			host = "/cloudsql/" + cfg.InstanceConnectionName
		}
		port := cfg.Port
		if port == "" || port == "3306" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			host, port, cfg.User, cfg.Password, cfg.Name)
	}

	addr := cfg.Host
	// Prefer Cloud SQL unix socket when INSTANCE_CONNECTION_NAME is provided.
	if cfg.InstanceConnectionName != "" {
		addr = fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	} else if strings.HasPrefix(cfg.Host, "tcp(") || strings.HasPrefix(cfg.Host, "unix(") {
		// already wrapped
	} else if strings.HasPrefix(cfg.Host, "/") {
		addr = fmt.Sprintf("unix(%s)", cfg.Host)
	} else {
		addr = fmt.Sprintf("tcp(%s:%s)", cfg.Host, cfg.Port)
	}

	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.User, cfg.Password, addr, cfg.Name)
}

func dialector(cfg *config.DB) (gorm.Dialector, error) {
	dsn := BuildDSN(cfg)
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(&cfg.DB)
	if err != nil {
		return nil, err
	}
	gcfg := &gorm.Config{
		PrepareStmt: cfg.DB.Driver != "sqlite",
		Logger:      logger.Default.LogMode(logger.Warn),
		NowFunc:     func() time.Time { return time.Now().UTC() },
	}
	db, err := gorm.Open(d, gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	if cfg.DB.Driver == "sqlite" {
		// sqlite allows a single writer; serialize through one connection.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Book{},
		&model.PurchaseRequest{},
		&model.DeliveryConfirmation{},
		&model.Notification{},
		&model.Conversation{},
		&model.Message{},
		&model.UserWallet{},
	)
}
