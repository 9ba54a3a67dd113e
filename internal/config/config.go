package config

import (
	"net/url"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the dashboard.
type Config struct {
	Port            string        `yaml:"port"`
	APIURL          string        `yaml:"api_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MutationRate    float64       `yaml:"mutation_rate"`
	MutationBurst   int           `yaml:"mutation_burst"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`

	// File is the YAML file the values were read from, if any.
	File string `yaml:"-"`
}

// Flags are the command line options. Every value may also come from the
// environment. A nil field was not given.
type Flags struct {
	ConfigFile      *string        `long:"config" env:"DASHBOARD_CONFIG" description:"YAML configuration file"`
	Port            *string        `long:"port" env:"PORT" description:"Port the dashboard listens on (default: 43565)"`
	APIURL          *string        `long:"api-url" env:"STATUS_API_URL" description:"Base URL of the status API (default: http://localhost:8080)"`
	Timeout         *time.Duration `long:"timeout" env:"STATUS_API_TIMEOUT" description:"Timeout of each status API call (default: 5s)"`
	RefreshInterval *time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" description:"Background refresh interval, 0 disables (default: 30s)"`
	MutationRate    *float64       `long:"mutation-rate" env:"MUTATION_RATE" description:"Add/delete requests per second per client (default: 2)"`
	MutationBurst   *int           `long:"mutation-burst" env:"MUTATION_BURST" description:"Burst of add/delete requests per client (default: 4)"`
	LogLevel        *string        `long:"log-level" env:"LOG_LEVEL" description:"panic, fatal, error, warn, info, debug or trace (default: info)"`
	LogFormat       *string        `long:"log-format" env:"LOG_FORMAT" description:"text or json (default: text)"`
}

// searchPaths are tried in order when no config file is given.
var searchPaths = []string{"config/dashboard.yaml", "../config/dashboard.yaml", "./dashboard.yaml"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            "43565",
		APIURL:          "http://localhost:8080",
		Timeout:         5 * time.Second,
		RefreshInterval: 30 * time.Second,
		MutationRate:    2,
		MutationBurst:   4,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, the YAML file, the
// environment and args, later sources winning. A go-flags help request is
// returned as a *flags.Error of type flags.ErrHelp.
func Load(args []string) (Config, error) {
	var f Flags
	if _, err := flags.NewParser(&f, flags.Default).ParseArgs(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if f.ConfigFile != nil {
		if err := LoadFile(*f.ConfigFile, &cfg); err != nil {
			return Config{}, errors.Trace(err)
		}
	} else {
		for _, p := range searchPaths {
			if _, err := os.Stat(p); err == nil {
				if err := LoadFile(p, &cfg); err != nil {
					return Config{}, errors.Trace(err)
				}
				break
			}
		}
	}

	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// LoadFile overlays the values present in the YAML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotate(err, "reading config file")
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return errors.Annotatef(err, "parsing config file %s", path)
	}
	cfg.File = path
	return nil
}

func (f Flags) apply(cfg *Config) {
	if f.Port != nil {
		cfg.Port = *f.Port
	}
	if f.APIURL != nil {
		cfg.APIURL = *f.APIURL
	}
	if f.Timeout != nil {
		cfg.Timeout = *f.Timeout
	}
	if f.RefreshInterval != nil {
		cfg.RefreshInterval = *f.RefreshInterval
	}
	if f.MutationRate != nil {
		cfg.MutationRate = *f.MutationRate
	}
	if f.MutationBurst != nil {
		cfg.MutationBurst = *f.MutationBurst
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		cfg.LogFormat = *f.LogFormat
	}
}

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NotValidf("status API URL %q", c.APIURL)
	}
	if c.Port == "" {
		return errors.NotValidf("empty port")
	}
	if c.Timeout <= 0 {
		return errors.NotValidf("timeout %v", c.Timeout)
	}
	if c.RefreshInterval < 0 {
		return errors.NotValidf("refresh interval %v", c.RefreshInterval)
	}
	if c.MutationRate < 0 || c.MutationBurst < 0 {
		return errors.NotValidf("mutation rate %v burst %d", c.MutationRate, c.MutationBurst)
	}
	return nil
}

// Addr is the listen address of the dashboard.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
