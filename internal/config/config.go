package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yumyai/blastview/pkg/model"
)

const (
	defaultDataDir     = "./data"
	defaultAddr        = "0.0.0.0:8080"
	defaultLogLevel    = "info"
	defaultMaxConns    = 64
	defaultUploadRPS   = 2.0
	defaultMaxUploadMB = 64
)

// Config holds everything the server and the CLI read from the environment.
type Config struct {
	DataDir     string
	Addr        string
	LogLevel    string
	MaxConns    int
	UploadRPS   float64
	MaxUploadMB int64

	// Filter values a fresh page or CLI run starts from.
	Defaults model.Params

	// Set when no .env file was found.
	DotenvMissing bool
}

// LedgerPath is the SQLite file holding upload history.
func (c *Config) LedgerPath() string {
	return path.Join(c.DataDir, "blastview.db")
}

// Load reads .env (if present), then the BLASTVIEW_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := godotenv.Load(); err != nil {
		cfg.DotenvMissing = true
	}
	if err := cfg.fromEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	c.DataDir = stringOr(getenv("BLASTVIEW_DATA"), defaultDataDir)
	c.Addr = stringOr(getenv("BLASTVIEW_ADDR"), defaultAddr)
	c.LogLevel = stringOr(getenv("BLASTVIEW_LOG_LEVEL"), defaultLogLevel)

	var err error
	if c.MaxConns, err = intOr(getenv("BLASTVIEW_MAX_CONNS"), defaultMaxConns); err != nil {
		return fmt.Errorf("BLASTVIEW_MAX_CONNS: %w", err)
	}
	maxUpload, err := intOr(getenv("BLASTVIEW_MAX_UPLOAD_MB"), defaultMaxUploadMB)
	if err != nil {
		return fmt.Errorf("BLASTVIEW_MAX_UPLOAD_MB: %w", err)
	}
	c.MaxUploadMB = int64(maxUpload)

	c.UploadRPS = defaultUploadRPS
	if raw := getenv("BLASTVIEW_UPLOAD_RPS"); raw != "" {
		if c.UploadRPS, err = strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("BLASTVIEW_UPLOAD_RPS: %w", err)
		}
	}

	c.Defaults = model.DefaultParams()
	if file := getenv("BLASTVIEW_DEFAULTS"); file != "" {
		defaults, err := LoadDefaults(file)
		if err != nil {
			return err
		}
		c.Defaults = defaults
	}
	return nil
}

// LoadDefaults reads filter defaults from a YAML file. Keys left out keep the built-in value.
//
//	identity: 95
//	evalue: 1e-10
//	sort_column: bit_score
func LoadDefaults(file string) (model.Params, error) {
	params := model.DefaultParams()

	data, err := os.ReadFile(file)
	if err != nil {
		return params, fmt.Errorf("read defaults %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("parse defaults %s: %w", file, err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("defaults %s: %w", file, err)
	}
	return params, nil
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intOr(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
