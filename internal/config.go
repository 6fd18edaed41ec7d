package internal

import (
	"fmt"
	"time"
)

// Storage driver names accepted by STORAGE_DRIVER.
const (
	DriverBadger = "badger"
	DriverRedis  = "redis"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	StorageDriver  string `env:"STORAGE_DRIVER,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/meetsync"`
	RedisURL       string `env:"REDIS_URL"`

	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=16"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`

	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverBadger:
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}
