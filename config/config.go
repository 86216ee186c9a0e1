package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"mesocratic/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Logging
	LogLevel string

	// Follow-up notification transport
	NATSURL         string
	FollowUpSubject string

	// Committee identity printed on filings
	Committee models.Committee

	// Processing fee schedule
	FeeRate       decimal.Decimal
	FeeFixedCents int64
	FeePayeeName  string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from a .env file, if present, and environment variables
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		NATSURL:         os.Getenv("NATS_URL"),
		FollowUpSubject: getEnv("FOLLOWUP_SUBJECT", "compliance.followup.requested"),

		Committee: models.Committee{
			Name:               os.Getenv("COMMITTEE_NAME"),
			FECID:              os.Getenv("COMMITTEE_FEC_ID"),
			EIN:                os.Getenv("COMMITTEE_EIN"),
			Street1:            os.Getenv("COMMITTEE_STREET1"),
			Street2:            os.Getenv("COMMITTEE_STREET2"),
			City:               os.Getenv("COMMITTEE_CITY"),
			State:              os.Getenv("COMMITTEE_STATE"),
			Zip:                os.Getenv("COMMITTEE_ZIP"),
			TreasurerLastName:  os.Getenv("TREASURER_LAST_NAME"),
			TreasurerFirstName: os.Getenv("TREASURER_FIRST_NAME"),
			CustodianName:      os.Getenv("CUSTODIAN_NAME"),
		},

		FeeRate:       decimal.RequireFromString("0.029"),
		FeeFixedCents: 30,
		FeePayeeName:  getEnv("FEE_PAYEE_NAME", "Stripe, Inc."),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if rate := os.Getenv("FEE_RATE"); rate != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(rate))
		if err != nil {
			return nil, fmt.Errorf("FEE_RATE must be a decimal: %w", err)
		}
		config.FeeRate = parsed
	}
	if fixed := os.Getenv("FEE_FIXED_CENTS"); fixed != "" {
		parsed, err := strconv.ParseInt(fixed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("FEE_FIXED_CENTS must be an integer: %w", err)
		}
		config.FeeFixedCents = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
