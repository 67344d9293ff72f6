package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/sadl/constant"
)

const (
	DefaultSearchURL   = "https://slavart.gamesdrive.net/api/search"
	DefaultDownloadURL = "https://slavart-api.gamesdrive.net/api/download/track"
)

type Config struct {
	SearchURL       string        `json:"search_url"       yaml:"search_url"`
	DownloadURL     string        `json:"download_url"     yaml:"download_url"`
	RetryDelay      time.Duration `json:"retry_delay"      yaml:"retry_delay"`
	SearchTimeout   time.Duration `json:"search_timeout"   yaml:"search_timeout"`
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`
	FileExtension   string        `json:"file_extension"   yaml:"file_extension"`
	OutputDir       string        `json:"output_dir"       yaml:"output_dir"`
	UserAgent       string        `json:"user_agent"       yaml:"user_agent"`
	LogLevel        string        `json:"log_level"        yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		SearchURL:       DefaultSearchURL,
		DownloadURL:     DefaultDownloadURL,
		RetryDelay:      DefaultRetryDelay,
		SearchTimeout:   DefaultSearchTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		FileExtension:   "flac",
		OutputDir:       ".",
		UserAgent:       constant.UserAgent(),
		LogLevel:        zerolog.LevelInfoValue,
	}
}

func (cfg *Config) validate() error {
	if err := validateEndpoint(cfg.SearchURL); nil != err {
		return fmt.Errorf("invalid search url: %v", err)
	}

	if err := validateEndpoint(cfg.DownloadURL); nil != err {
		return fmt.Errorf("invalid download url: %v", err)
	}

	if cfg.RetryDelay < 0 {
		return errors.New("retry delay is negative")
	}

	if cfg.SearchTimeout <= 0 {
		return errors.New("search timeout must be positive")
	}

	if cfg.DownloadTimeout <= 0 {
		return errors.New("download timeout must be positive")
	}

	if strings.TrimPrefix(cfg.FileExtension, ".") == "" {
		return errors.New("file extension is empty")
	}

	if cfg.OutputDir == "" {
		return errors.New("output dir is empty")
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); nil != err {
		return fmt.Errorf("invalid log level %q: %v", cfg.LogLevel, err)
	}

	return nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if nil != err {
		return err
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func (cfg *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if nil != err {
		return zerolog.InfoLevel
	}
	return lvl
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg, err := parse(data)
	if nil != err {
		return nil, fmt.Errorf("failed to load config file %q: %v", filePath, err)
	}

	return cfg, nil
}

func FromString(data string) (*Config, error) {
	return parse([]byte(data))
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	cfg.FileExtension = strings.TrimPrefix(cfg.FileExtension, ".")

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return cfg, nil
}
