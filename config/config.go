// Package config loads the configuration of the bw tool.
//
// Values come from, in increasing priority: the defaults, a YAML file, a .env
// file, and the environment. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/budget"
	"github.com/etnz/budget/eodhd"
	"github.com/etnz/budget/sqlstore"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Rate sources.
const (
	SourceStatic   = "static"
	SourceEODHD    = "eodhd"
	SourceJSONPath = "jsonpath"
)

// Config is the configuration of the application.
type Config struct {
	DataDir         string `yaml:"data_dir"`
	Database        string `yaml:"database"` // a SQL DSN, overrides DataDir when set
	DefaultCurrency string `yaml:"default_currency"`

	Listen          string `yaml:"listen"`
	Secure          bool   `yaml:"secure"`
	WebUser         string `yaml:"web_user"`
	WebPassword     string `yaml:"web_password"`
	FlushPerRequest bool   `yaml:"flush_per_request"`

	Rates Rates `yaml:"rates"`
}

// Rates configures where exchange rates come from.
type Rates struct {
	Source   string             `yaml:"source"`
	Static   map[string]float64 `yaml:"static"`
	Timeout  time.Duration      `yaml:"timeout"`
	APIKey   string             `yaml:"eodhd_api_key"`
	CacheDir string             `yaml:"cache_dir"`
	URL      string             `yaml:"url"`  // jsonpath source only
	Path     string             `yaml:"path"` // jsonpath source only
}

// Default returns the default configuration.
func Default() Config {
	dir := ".budget"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".budget")
	}
	return Config{
		DataDir:         dir,
		DefaultCurrency: "USD",
		Listen:          "localhost:8080",
		FlushPerRequest: true,
		Rates: Rates{
			Source:  SourceStatic,
			Timeout: budget.DefaultFetchTimeout,
		},
	}
}

// Load returns the configuration read from the YAML file at path, then the .env files, then the environment.
//
// An empty path skips the YAML file. Missing .env files are ignored; by default ".env" in the current folder is read.
func Load(path string, envFiles ...string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("cannot read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse error in config file %q: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("cannot load env file %q: %w", f, err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// applyEnv overrides c with the BUDGET_* variables.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid environment variable %s=%q: %w", key, v, err)
		}
		*dst = b
		return nil
	}

	str("BUDGET_DATA_DIR", &c.DataDir)
	str("BUDGET_DATABASE", &c.Database)
	str("BUDGET_DEFAULT_CURRENCY", &c.DefaultCurrency)
	str("BUDGET_LISTEN", &c.Listen)
	str("BUDGET_WEB_USER", &c.WebUser)
	str("BUDGET_WEB_PASSWORD", &c.WebPassword)
	str("BUDGET_RATE_SOURCE", &c.Rates.Source)
	str("BUDGET_RATE_URL", &c.Rates.URL)
	str("BUDGET_RATE_PATH", &c.Rates.Path)
	str("EODHD_API_KEY", &c.Rates.APIKey)
	if err := boolean("BUDGET_SECURE", &c.Secure); err != nil {
		return err
	}
	if err := boolean("BUDGET_FLUSH_PER_REQUEST", &c.FlushPerRequest); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("BUDGET_RATE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid environment variable BUDGET_RATE_TIMEOUT=%q: %w", v, err)
		}
		c.Rates.Timeout = d
	}
	return nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" && c.Database == "" {
		errs = append(errs, errors.New("either a data folder or a database is required"))
	}
	if !budget.KnownCurrency(c.DefaultCurrency) {
		errs = append(errs, fmt.Errorf("unknown default currency %q", c.DefaultCurrency))
	}
	if c.Secure && (c.WebUser == "" || c.WebPassword == "") {
		errs = append(errs, errors.New("secure mode requires a web user and password"))
	}
	switch c.Rates.Source {
	case SourceStatic, "":
	case SourceEODHD:
		if c.Rates.APIKey == "" {
			errs = append(errs, errors.New("the eodhd rate source requires an api key (EODHD_API_KEY)"))
		}
	case SourceJSONPath:
		if c.Rates.URL == "" || c.Rates.Path == "" {
			errs = append(errs, errors.New("the jsonpath rate source requires a url and a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate source %q", c.Rates.Source))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// RateFetcher returns the configured source of exchange rates.
func (c Config) RateFetcher(log *zap.SugaredLogger) budget.RateFetcher {
	switch c.Rates.Source {
	case SourceEODHD:
		return eodhd.NewRateFetcher(c.Rates.APIKey, c.Rates.CacheDir, c.Rates.Timeout, log)
	case SourceJSONPath:
		return budget.NewJSONRateFetcher(c.Rates.URL, c.Rates.Path, c.Rates.Timeout)
	default:
		static := make(budget.StaticRates, len(c.Rates.Static))
		for k, v := range c.Rates.Static {
			static[strings.ToUpper(k)] = v
		}
		return static
	}
}

// NewRates returns an empty cache of rates to the default currency, using the configured source.
func (c Config) NewRates(log *zap.SugaredLogger) *budget.Rates {
	return budget.NewRates(c.DefaultCurrency, c.RateFetcher(log),
		budget.WithFetchTimeout(c.Rates.Timeout),
		budget.WithRatesLogger(log),
	)
}

// Backend returns the configured persistence medium, and a function to release it.
func (c Config) Backend(log *zap.SugaredLogger) (budget.Backend, func() error, error) {
	if c.Database != "" {
		b, err := sqlstore.Open(c.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return budget.NewFileBackend(c.DataDir, log), func() error { return nil }, nil
}
