package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Printer PrinterConfig `mapstructure:"printer"`
	Shop    ShopConfig    `mapstructure:"shop"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

// CatalogConfig selects where the product list comes from: a "file" of
// name,price lines or the "mysql" products table.
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

type PrinterConfig struct {
	VendorID  uint16        `mapstructure:"vendor_id"`
	ProductID uint16        `mapstructure:"product_id"`
	Endpoint  uint8         `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	FeedLines int           `mapstructure:"feed_lines"`
}

type ShopConfig struct {
	Discounts []int `mapstructure:"discounts"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	CatalogSourceFile  = "file"
	CatalogSourceMySQL = "mysql"
)

// SetDefaults registers the values the tool runs with when no config file is present.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.maxOpenConns", 4)
	v.SetDefault("catalog.source", CatalogSourceFile)
	v.SetDefault("catalog.path", "termekek.txt")
	v.SetDefault("printer.vendor_id", 0x1504)
	v.SetDefault("printer.product_id", 0x0025)
	v.SetDefault("printer.endpoint", 0x01)
	v.SetDefault("printer.timeout", time.Second)
	v.SetDefault("printer.feed_lines", 5)
	v.SetDefault("shop.discounts", []int{0, 5, 10, 15, 20})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig loads configuration from config.yaml and environment variables.
// An explicit path takes precedence over the search locations; a missing
// config file is only an error when the path was given explicitly.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("./")
		v.AddConfigPath("$HOME/.receipter/")
		v.AddConfigPath("/etc/receipter/")
	}

	// Enable environment variable override with RECEIPTER_ prefix:
	// printer.vendor_id is read from RECEIPTER_PRINTER_VENDOR_ID.
	v.SetEnvPrefix("RECEIPTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the printer path cannot run with.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case CatalogSourceMySQL:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the mysql catalog source")
		}
	default:
		return fmt.Errorf("unsupported catalog source: %s", c.Catalog.Source)
	}

	if c.Printer.Timeout <= 0 {
		return fmt.Errorf("printer.timeout must be positive")
	}
	if c.Printer.FeedLines < 0 {
		return fmt.Errorf("printer.feed_lines must not be negative")
	}

	for _, d := range c.Shop.Discounts {
		if d < 0 || d > 100 {
			return fmt.Errorf("shop.discounts: %d%% is outside 0-100", d)
		}
	}

	return nil
}
