package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/oolio-pos/internal/billing"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Timezone     string `default:"UTC" usage:"IANA timezone for sale dates and month reports"`
	MaxImageSize int64  `default:"5242880" usage:"Maximum uploaded item image size in bytes" flag:"max-image-size"`
	Storage      StorageConfig
	Payee        PayeeConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver      string `default:"memory" usage:"Storage driver: memory or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (POS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// PayeeConfig is the merchant shown in payment requests.
type PayeeConfig struct {
	MerchantID string `default:"restaurant@upi" usage:"UPI id that receives payments" flag:"merchant-id"`
	Name       string `default:"Restaurant" usage:"Payee name shown by payment apps" flag:"payee-name"`
	Currency   string `default:"INR" usage:"Payment currency code"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Location returns the Timezone location. LoadConfig has validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BillingPayee converts the payee settings.
func (c *Config) BillingPayee() billing.Payee {
	return billing.Payee{
		MerchantID: c.Payee.MerchantID,
		Name:       c.Payee.Name,
		Currency:   c.Payee.Currency,
	}
}

// LoadConfig loads configuration for the server from an optional .env file,
// environment variables, YAML config files and command-line flags.
func LoadConfig() (*Config, error) {
	return loadConfig(false, []string{"config.yaml", "/etc/pos/config.yaml"})
}

// LoadEnvConfig is LoadConfig without flag parsing, for commands that own
// their flags.
func LoadEnvConfig() (*Config, error) {
	return loadConfig(true, []string{"config.yaml", "/etc/pos/config.yaml"})
}

func loadConfig(skipFlags bool, files []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		SkipFlags: skipFlags,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set POS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	if c.MaxImageSize <= 0 {
		return errors.Errorf("max image size must be positive, got %d", c.MaxImageSize)
	}

	if c.Payee.MerchantID == "" {
		return errors.New("payee merchant id is required")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
