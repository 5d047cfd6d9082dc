package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// PrinterConfig describes one printer in the TOML rate table.
type PrinterConfig struct {
	RateGram    float64 `toml:"rate_g"`
	Type        string  `toml:"type"`
	DisplayName string  `toml:"display_name"`
}

// Mail holds the SMTP settings for student notifications.
type Mail struct {
	Server   string
	Port     int
	Username string
	Password string
	Sender   string
}

// Configured reports whether real mail settings are present. Placeholder
// values count as unconfigured and notifications are skipped with a log
// line instead of failing transitions.
func (m Mail) Configured() bool {
	if m.Server == "" || m.Server == "smtp.example.com" {
		return false
	}
	if m.Sender == "" || m.Sender == "noreply@example.com" {
		return false
	}
	return m.Username != ""
}

// fileConfig is the shape of the optional TOML config file.
type fileConfig struct {
	MinimumCharge string                   `toml:"minimum_charge"`
	Denylist      []string                 `toml:"denylist"`
	Printers      map[string]PrinterConfig `toml:"printers"`
}

// Config holds application configuration. Everything is explicit; no
// component reads ambient globals.
type Config struct {
	Port          int
	DBPath        string
	StorageBase   string
	PublicURL     string
	StaffKey      string
	TokenSecret   string
	TokenValidity time.Duration
	AuditInterval time.Duration
	Mail          Mail

	// From the TOML file; nil/empty means built-in defaults.
	Printers      map[string]PrinterConfig
	MinimumCharge string
	Denylist      []string
}

// DefaultDBPath returns the default database path next to the storage
// tree.
func DefaultDBPath() string {
	return filepath.Join("instance", "printflow.db")
}

// DefaultStorageBase returns the default storage base directory.
func DefaultStorageBase() string {
	return "storage"
}

// Default returns a Config with every default applied and no flag or
// environment handling, for tests and embedding.
func Default() *Config {
	return &Config{
		Port:          5000,
		DBPath:        DefaultDBPath(),
		StorageBase:   DefaultStorageBase(),
		PublicURL:     "http://localhost:5000",
		StaffKey:      "defaultstaffpassword",
		TokenSecret:   "a_very_secret_key_that_should_be_changed",
		TokenValidity: 168 * time.Hour,
		AuditInterval: 10 * time.Minute,
		Mail: Mail{
			Server: "smtp.example.com",
			Port:   587,
			Sender: "noreply@example.com",
		},
	}
}

// Load parses flags, the environment, and the optional TOML file to build
// the Config. Environment wins over flags, the file only supplies the
// printer table, minimum charge, and denylist.
func Load() (*Config, error) {
	cfg := Default()
	var configFile string

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.StorageBase, "storage", cfg.StorageBase, "Storage base directory")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Base URL used in confirmation links")
	flag.DurationVar(&cfg.AuditInterval, "audit-interval", cfg.AuditInterval, "Custody audit sweep interval")
	flag.StringVar(&configFile, "config", "", "Optional TOML config file (printers, minimum charge, denylist)")
	flag.Parse()

	applyEnv(cfg, &configFile)

	if configFile != "" {
		if err := mergeFile(cfg, configFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config, configFile *string) {
	if v := os.Getenv("PRINTFLOW_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("PRINTFLOW_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PRINTFLOW_STORAGE"); v != "" {
		cfg.StorageBase = v
	}
	if v := os.Getenv("PRINTFLOW_PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := os.Getenv("PRINTFLOW_CONFIG"); v != "" {
		*configFile = v
	}
	if v := os.Getenv("STAFF_PASSWORD"); v != "" {
		cfg.StaffKey = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.TokenSecret = v
	}
	if v := os.Getenv("TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TokenValidity = d
		}
	}
	if v := os.Getenv("MAIL_SERVER"); v != "" {
		cfg.Mail.Server = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Mail.Port = p
		}
	}
	if v := os.Getenv("MAIL_USERNAME"); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("MAIL_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("MAIL_DEFAULT_SENDER"); v != "" {
		cfg.Mail.Sender = v
	}
}

func mergeFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.MinimumCharge != "" {
		cfg.MinimumCharge = fc.MinimumCharge
	}
	if len(fc.Denylist) > 0 {
		cfg.Denylist = fc.Denylist
	}
	if len(fc.Printers) > 0 {
		cfg.Printers = fc.Printers
	}
	return nil
}
