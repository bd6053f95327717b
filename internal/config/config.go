package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	GitSHA  string `env:"GIT_SHA"`
	BuildAt string `env:"BUILD_TIME"`

	DB       DB
	Firebase Firebase
	Workflow Workflow
	Events   Events
	Receipts Receipts
}

type DB struct {
	Driver                 string `env:"DB_DRIVER" envDefault:"mysql"` // mysql | postgres | sqlite
	DSN                    string `env:"DB_DSN"`                       // overrides the fields below when set
	User                   string `env:"DB_USER"`
	Password               string `env:"DB_PASSWORD"`
	Host                   string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	Name                   string `env:"DB_NAME"`
	Port                   string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
}

type Firebase struct {
	ProjectID string `env:"FIREBASE_PROJECT_ID"`
}

type Workflow struct {
	DeliveryHorizon time.Duration `env:"DELIVERY_DATE_HORIZON" envDefault:"720h"`
	SellerBonus     int64         `env:"PAYOUT_SELLER_BONUS" envDefault:"30"`
	PlatformFee     int64         `env:"PLATFORM_FEE" envDefault:"20"`
}

type Events struct {
	Backend            string   `env:"EVENTS_BACKEND" envDefault:"none"` // none | kafka | redis
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic         string   `env:"KAFKA_TOPIC" envDefault:"bookswap.notifications"`
	RedisURL           string   `env:"REDIS_URL"`
	RedisChannelPrefix string   `env:"REDIS_CHANNEL_PREFIX" envDefault:"bookswap:user:"`
}

type Receipts struct {
	Bucket string `env:"RECEIPT_BUCKET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres":
		if c.DB.DSN == "" && (c.DB.User == "" || c.DB.Name == "" || (c.DB.Host == "" && c.DB.InstanceConnectionName == "")) {
			return errors.New("DB_USER, DB_NAME and DB_HOST (or DB_DSN) are required")
		}
	case "sqlite":
		if c.DB.DSN == "" {
			c.DB.DSN = "file:bookswap.db?_busy_timeout=5000"
		}
	default:
		return errors.New("DB_DRIVER must be one of mysql, postgres, sqlite")
	}
	if c.Workflow.DeliveryHorizon < 24*time.Hour {
		return errors.New("DELIVERY_DATE_HORIZON must be at least one day")
	}
	if c.Workflow.SellerBonus < 0 || c.Workflow.PlatformFee < 0 {
		return errors.New("payout bonus and platform fee must not be negative")
	}
	switch c.Events.Backend {
	case "none":
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka events backend")
		}
	case "redis":
		if c.Events.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis events backend")
		}
	default:
		return errors.New("EVENTS_BACKEND must be one of none, kafka, redis")
	}
	return nil
}
