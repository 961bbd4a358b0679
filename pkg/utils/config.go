package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Booking  BookingConfig
	Sweep    SweepConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
}

type AppConfig struct {
	Name     string
	Port     string
	Debug    bool
	LogPath  string
	Timezone string
}

type DatabaseConfig struct {
	Host      string
	Port      string
	Name      string
	User      string
	Password  string
	MaxConns  int32
	TxRetries int
}

// DSN builds the libpq style connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s dbname=%s sslmode=disable host=%s port=%s",
		c.User, c.Password, c.Name, c.Host, c.Port)
}

// BookingConfig holds the lifecycle windows of holds, payments and refunds.
type BookingConfig struct {
	HoldTTL              time.Duration
	PaymentWindow        time.Duration
	RefundCutoff         time.Duration
	WeekendMarkupPercent int64
}

type SweepConfig struct {
	ReservationInterval time.Duration
	PaymentInterval     time.Duration
	BookingInterval     time.Duration
	BatchSize           int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL   string
	Queue string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "cinema-ticketing")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("TIMEZONE", "Local")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_TX_RETRIES", 3)
	viper.SetDefault("HOLD_TTL", "10m")
	viper.SetDefault("PAYMENT_WINDOW", "120s")
	viper.SetDefault("REFUND_CUTOFF", "24h")
	viper.SetDefault("WEEKEND_MARKUP_PERCENT", 20)
	viper.SetDefault("RESERVATION_SWEEP_INTERVAL", "10s")
	viper.SetDefault("PAYMENT_SWEEP_INTERVAL", "10s")
	viper.SetDefault("BOOKING_SWEEP_INTERVAL", "10s")
	viper.SetDefault("SWEEP_BATCH_SIZE", 500)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("AMQP_QUEUE", "cinema.notifications")

	viper.AutomaticEnv()

	// .env is optional, environment variables alone are enough
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Port:     viper.GetString("PORT"),
			Debug:    viper.GetBool("DEBUG"),
			LogPath:  viper.GetString("LOG_PATH"),
			Timezone: viper.GetString("TIMEZONE"),
		},
		Database: DatabaseConfig{
			Host:      viper.GetString("DB_HOST"),
			Port:      viper.GetString("DB_PORT"),
			Name:      viper.GetString("DB_NAME"),
			User:      viper.GetString("DB_USER"),
			Password:  viper.GetString("DB_PASS"),
			MaxConns:  viper.GetInt32("DB_MAX_CONNS"),
			TxRetries: viper.GetInt("DB_TX_RETRIES"),
		},
		Booking: BookingConfig{
			HoldTTL:              viper.GetDuration("HOLD_TTL"),
			PaymentWindow:        viper.GetDuration("PAYMENT_WINDOW"),
			RefundCutoff:         viper.GetDuration("REFUND_CUTOFF"),
			WeekendMarkupPercent: viper.GetInt64("WEEKEND_MARKUP_PERCENT"),
		},
		Sweep: SweepConfig{
			ReservationInterval: viper.GetDuration("RESERVATION_SWEEP_INTERVAL"),
			PaymentInterval:     viper.GetDuration("PAYMENT_SWEEP_INTERVAL"),
			BookingInterval:     viper.GetDuration("BOOKING_SWEEP_INTERVAL"),
			BatchSize:           viper.GetInt("SWEEP_BATCH_SIZE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		AMQP: AMQPConfig{
			URL:   viper.GetString("AMQP_URL"),
			Queue: viper.GetString("AMQP_QUEUE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch {
	case c.Booking.HoldTTL <= 0:
		return fmt.Errorf("HOLD_TTL must be positive")
	case c.Booking.PaymentWindow <= 0:
		return fmt.Errorf("PAYMENT_WINDOW must be positive")
	case c.Sweep.ReservationInterval <= 0, c.Sweep.PaymentInterval <= 0, c.Sweep.BookingInterval <= 0:
		return fmt.Errorf("sweep intervals must be positive")
	case c.Sweep.BatchSize <= 0:
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}
	return nil
}

// Location resolves the configured cinema time zone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
