package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultIndexURL = "https://leagueoflegends.fandom.com/wiki/List_of_champions"
	DefaultPageURL  = "https://leagueoflegends.fandom.com/wiki/{Champion}/LoL/Audio"
)

type Config struct {
	// Sources
	IndexURL   string   `toml:"index_url"`
	PageURL    string   `toml:"page_url"`    // {champion} and {Champion} are substituted
	PageFormat string   `toml:"page_format"` // html or markdown
	Champions  []string `toml:"champions"`
	UserAgent  string   `toml:"user_agent"`

	// Paths
	CacheDir      string `toml:"cache_dir"`
	OutputPath    string `toml:"output_path"`
	AnnotatedPath string `toml:"annotated_path"`
	QuotesPath    string `toml:"quotes_path"`
	SoundDir      string `toml:"sound_dir"`

	// Worker pool
	Workers         int `toml:"workers"`
	DownloadWorkers int `toml:"download_workers"`
	MaxQueueSize    int `toml:"max_queue_size"`

	// Network
	FetchTimeout int `toml:"fetch_timeout"` // seconds

	// API server
	ListenAddr string `toml:"listen_addr"`
	APIKey     string `toml:"api_key"`
	JobTTL     int    `toml:"job_ttl"` // seconds

	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		IndexURL:        DefaultIndexURL,
		PageURL:         DefaultPageURL,
		UserAgent:       "pale/1.0",
		PageFormat:      "html",
		CacheDir:        "assets/cache",
		OutputPath:      "assets/pale.tsv",
		AnnotatedPath:   "assets/pale-annotated.tsv",
		QuotesPath:      "assets/quotes.tsv",
		SoundDir:        "assets/sound",
		Workers:         4,
		DownloadWorkers: 8,
		MaxQueueSize:    100,
		FetchTimeout:    120,
		ListenAddr:      ":8090",
		JobTTL:          3600,
		LogLevel:        "info",
	}
}

// Load reads the TOML file at path (if non-empty), applies PALE_*
// environment overrides, and fills defaults for anything left unset.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("config file %s not found", path)
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.IndexURL = envOr("PALE_INDEX_URL", cfg.IndexURL)
	cfg.PageURL = envOr("PALE_PAGE_URL", cfg.PageURL)
	cfg.UserAgent = envOr("PALE_USER_AGENT", cfg.UserAgent)
	cfg.PageFormat = strings.ToLower(envOr("PALE_PAGE_FORMAT", cfg.PageFormat))
	cfg.CacheDir = envOr("PALE_CACHE_DIR", cfg.CacheDir)
	cfg.OutputPath = envOr("PALE_OUTPUT_PATH", cfg.OutputPath)
	cfg.AnnotatedPath = envOr("PALE_ANNOTATED_PATH", cfg.AnnotatedPath)
	cfg.QuotesPath = envOr("PALE_QUOTES_PATH", cfg.QuotesPath)
	cfg.SoundDir = envOr("PALE_SOUND_DIR", cfg.SoundDir)
	cfg.Workers = envInt("PALE_WORKERS", cfg.Workers)
	cfg.DownloadWorkers = envInt("PALE_DOWNLOAD_WORKERS", cfg.DownloadWorkers)
	cfg.MaxQueueSize = envInt("PALE_MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.FetchTimeout = envInt("PALE_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.ListenAddr = envOr("PALE_LISTEN_ADDR", cfg.ListenAddr)
	cfg.APIKey = envOr("PALE_API_KEY", cfg.APIKey)
	cfg.JobTTL = envInt("PALE_JOB_TTL", cfg.JobTTL)
	cfg.LogLevel = envOr("PALE_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("PALE_CHAMPIONS"); v != "" {
		cfg.Champions = splitList(v)
	}

	def := Default()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.DownloadWorkers <= 0 {
		cfg.DownloadWorkers = def.DownloadWorkers
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.PageURL == "" {
		return fmt.Errorf("page_url is required")
	}
	if !strings.Contains(strings.ToLower(c.PageURL), "{champion}") {
		return fmt.Errorf("page_url must contain a {champion} or {Champion} placeholder")
	}
	if c.IndexURL == "" && len(c.Champions) == 0 {
		return fmt.Errorf("either index_url or champions is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required")
	}
	if _, ok := pageExtensions[c.PageFormat]; !ok {
		return fmt.Errorf("page_format must be html or markdown (got %q)", c.PageFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	return nil
}

var pageExtensions = map[string]string{
	"html":     ".html",
	"markdown": ".md",
}

// PageExtension returns the cache file extension for PageFormat.
func (c Config) PageExtension() string {
	if ext, ok := pageExtensions[c.PageFormat]; ok {
		return ext
	}
	return ".html"
}

// FetchTimeoutDuration returns the page fetch timeout.
func (c Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// JobTTLDuration returns how long finished server jobs are kept.
func (c Config) JobTTLDuration() time.Duration {
	return time.Duration(c.JobTTL) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
