package config

import (
	"fmt"
	"os"
	"time"

	"page_factory/infrastructure/browser"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is prepended to every variable name, e.g. PAGEFACTORY_BACKEND
const EnvPrefix = "PAGEFACTORY"

// Config is the environment driven configuration of the command line tool
type Config struct {
	Backend      string        `envconfig:"BACKEND" default:"selenium"`
	DriverPath   string        `envconfig:"BROWSER_DRIVER_PATH"`
	ChromeBinary string        `envconfig:"CHROME_BINARY_PATH"`
	DriverPort   int           `envconfig:"DRIVER_PORT" default:"9515"`
	Headless     bool          `envconfig:"HEADLESS" default:"true"`
	ImplicitWait time.Duration `envconfig:"IMPLICIT_WAIT" default:"0s"`
	PageRoot     string        `envconfig:"PAGE_ROOT" default:"."`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load - reads .env files into the process environment, then the configuration.
// Without arguments an optional .env in the working directory is used.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// .env file is optional
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup - builds the configuration from an arbitrary variable source
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg, lookup); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate - checks values envconfig cannot check by type alone
func (c *Config) Validate() error {
	switch c.Backend {
	case browser.BackendSelenium, browser.BackendPlaywright, browser.BackendDocument:
	default:
		return fmt.Errorf("invalid configuration: unknown backend %q", c.Backend)
	}
	if c.DriverPort <= 0 || c.DriverPort > 65535 {
		return fmt.Errorf("invalid configuration: driver port %d out of range", c.DriverPort)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Logger - builds the logger for the configured level
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// BrowserOptions - maps the configuration onto browser session options
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Backend:      c.Backend,
		DriverPath:   c.DriverPath,
		ChromeBinary: c.ChromeBinary,
		DriverPort:   c.DriverPort,
		Headless:     c.Headless,
		ImplicitWait: c.ImplicitWait,
		PageRoot:     c.PageRoot,
	}
}
