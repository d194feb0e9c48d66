package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultSecretKey         = "vpay-dev-secret"
	defaultDevTranscript     = "Pay electricity bill 500 rupees"
	defaultSettlementTimeout = 30 * time.Second
	defaultOrderTTL          = 15 * time.Minute
)

type Config struct {
	RunAddress          string
	DatabaseURI         string
	OrderServiceAddress string
	SecretKey           string
	DevTranscript       string
	SettlementTimeout   time.Duration
	OrderTTL            time.Duration
}

// NewConfig reads .env (when present), then flags, then the environment.
// Environment values win over flags.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		return nil, err
	}

	if err := ReadServerEnvironment(cfg); err != nil {
		return nil, err
	}

	cfg.fillDefaults()
	return cfg, nil
}

func ParseFlags(name string, args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "HTTP server address")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "DB connection string")
	fs.StringVar(&cfg.OrderServiceAddress, "o", "", "Order service address, defaults to this server")
	fs.StringVar(&cfg.SecretKey, "k", defaultSecretKey, "JWT signing secret")
	fs.StringVar(&cfg.DevTranscript, "t", defaultDevTranscript, "Transcript returned for every recording")
	fs.DurationVar(&cfg.SettlementTimeout, "s", defaultSettlementTimeout, "Deadline for create and verify once an order is requested")
	fs.DurationVar(&cfg.OrderTTL, "x", defaultOrderTTL, "Age after which an unverified order is expired")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func ReadServerEnvironment(cfg *Config) error {
	if runAddress := os.Getenv("RUN_ADDRESS"); runAddress != "" {
		cfg.RunAddress = runAddress
	}

	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		cfg.DatabaseURI = databaseURI
	}

	if orderServiceAddress := os.Getenv("ORDER_SERVICE_ADDRESS"); orderServiceAddress != "" {
		cfg.OrderServiceAddress = orderServiceAddress
	}

	if secretKey := os.Getenv("SECRET_KEY"); secretKey != "" {
		cfg.SecretKey = secretKey
	}

	if transcript := os.Getenv("DEV_TRANSCRIPT"); transcript != "" {
		cfg.DevTranscript = transcript
	}

	if v := os.Getenv("SETTLEMENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SETTLEMENT_TIMEOUT: %w", err)
		}
		cfg.SettlementTimeout = d
	}

	if v := os.Getenv("ORDER_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ORDER_TTL: %w", err)
		}
		cfg.OrderTTL = d
	}

	return nil
}

func (cfg *Config) fillDefaults() {
	if cfg.OrderServiceAddress == "" {
		cfg.OrderServiceAddress = cfg.RunAddress
	}
	if !strings.HasPrefix(cfg.OrderServiceAddress, "http://") && !strings.HasPrefix(cfg.OrderServiceAddress, "https://") {
		cfg.OrderServiceAddress = "http://" + cfg.OrderServiceAddress
	}
	if cfg.SettlementTimeout <= 0 {
		cfg.SettlementTimeout = defaultSettlementTimeout
	}
	if cfg.OrderTTL <= 0 {
		cfg.OrderTTL = defaultOrderTTL
	}
}
