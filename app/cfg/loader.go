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
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./pressmill.db" description:"Path to the SQLite database file"`

	// Application configuration
	ContentDir        string `long:"content-dir" env:"CONTENT_DIR" default:"./content.d" description:"Directory containing content type configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://content.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for content compilation"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Analytics collaborator
	AnalyticsUrl   string `long:"analytics-url" env:"ANALYTICS_URL" description:"Base URL of the page-view analytics API (optional)"`
	AnalyticsToken string `long:"analytics-token" env:"ANALYTICS_TOKEN" description:"Bearer token for the analytics API"`

	// Application metadata
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"Pressmill/1.0" description:"User agent string for HTTP requests"`
	Timezone    string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Chicago)"`
	Environment string `long:"environment" env:"ENVIRONMENT" default:"development" description:"Deployment environment (development, production)"`
	Debug       bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
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

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		ContentDir:        raw.ContentDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		AnalyticsUrl:      raw.AnalyticsUrl,
		AnalyticsToken:    raw.AnalyticsToken,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Environment:       raw.Environment,
		Debug:             raw.Debug,
		Version:           GetVersion(),
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
