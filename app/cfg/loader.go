package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Catalog source configuration
	CatalogUser   string `long:"catalog-user" env:"CATALOG_USER" description:"Account that owns the plugin catalog repository"`
	CatalogRepo   string `long:"catalog-repo" env:"CATALOG_REPO" default:"page-comb-plugins" description:"Plugin catalog repository name"`
	CatalogAPIURL string `long:"catalog-api-url" env:"CATALOG_API_URL" default:"https://api.github.com" description:"Catalog host API base URL"`
	CatalogDir    string `long:"catalog-dir" env:"CATALOG_DIR" description:"Load plugins from a local directory instead of the catalog host"`
	ParsersDir    string `long:"parsers-dir" env:"PARSERS_DIR" default:"parsers" description:"Catalog directory holding parser definitions"`
	TemplatesDir  string `long:"templates-dir" env:"TEMPLATES_DIR" default:"templates" description:"Catalog directory holding template definitions"`

	// Application configuration
	Port                 string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	ContentType          string `long:"content-type" env:"CONTENT_TYPE" default:"text/html; charset=utf-8" description:"Default content type of rendered responses"`
	HTTPTimeout          int    `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30" description:"Outbound HTTP timeout in seconds"`
	RefreshCheckInterval int    `long:"refresh-check-interval" env:"REFRESH_CHECK_INTERVAL" default:"300" description:"Catalog staleness check interval in seconds"`
	RefreshStaleAfter    int    `long:"refresh-stale-after" env:"REFRESH_STALE_AFTER" default:"18000" description:"Catalog age in seconds after which it is refreshed"`
	RefreshConcurrency   int    `long:"refresh-concurrency" env:"REFRESH_CONCURRENCY" default:"8" description:"Concurrent file fetches per catalog directory"`
	RenderCacheTTL       int    `long:"render-cache-ttl" env:"RENDER_CACHE_TTL" default:"0" description:"Render cache TTL in seconds (0 disables)"`
	RedisAddr            string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the render cache (optional)"`
	DBPath               string `long:"db-path" env:"DB_PATH" description:"SQLite file for refresh history (optional)"`
	APIAccessKey         string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Tracing              bool   `long:"tracing" env:"TRACING" description:"Export trace spans to stdout"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Page Comb/1.0" description:"Default user agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := fromRaw(raw)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func fromRaw(raw rawCfg) *Cfg {
	return &Cfg{
		CatalogUser:          raw.CatalogUser,
		CatalogRepo:          raw.CatalogRepo,
		CatalogAPIURL:        raw.CatalogAPIURL,
		CatalogDir:           raw.CatalogDir,
		ParsersDir:           raw.ParsersDir,
		TemplatesDir:         raw.TemplatesDir,
		Port:                 raw.Port,
		ContentType:          raw.ContentType,
		HTTPTimeout:          seconds(raw.HTTPTimeout),
		RefreshCheckInterval: seconds(raw.RefreshCheckInterval),
		RefreshStaleAfter:    seconds(raw.RefreshStaleAfter),
		RefreshConcurrency:   raw.RefreshConcurrency,
		RenderCacheTTL:       seconds(raw.RenderCacheTTL),
		RedisAddr:            raw.RedisAddr,
		DBPath:               raw.DBPath,
		APIAccessKey:         raw.APIAccessKey,
		Tracing:              raw.Tracing,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}
}

func (c *Cfg) validate() error {
	if c.CatalogDir == "" && c.CatalogUser == "" {
		return fmt.Errorf("either catalog user (CATALOG_USER) or catalog dir (CATALOG_DIR) is required")
	}

	nonNegativeFields := map[string]time.Duration{
		"http timeout":           c.HTTPTimeout,
		"refresh check interval": c.RefreshCheckInterval,
		"refresh stale after":    c.RefreshStaleAfter,
		"render cache ttl":       c.RenderCacheTTL,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if c.RefreshCheckInterval == 0 {
		return fmt.Errorf("refresh check interval must be positive")
	}
	if c.RefreshConcurrency <= 0 {
		return fmt.Errorf("refresh concurrency must be positive")
	}

	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
