package cfg

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version != "" {
		return Version
	}
	return "unknown"
}

type rawCfg struct {
	// Application configuration
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	OutputPath string `long:"output-path" env:"OUTPUT_PATH" default:"./output/results.json" description:"Path of the JSON output sink"`
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./data/records.db" description:"Path of the sqlite record archive"`

	// Crawl configuration
	SourceWorkers int `long:"source-workers" env:"SOURCE_WORKERS" default:"2" description:"Number of source crawls running concurrently"`
	ContentMaxLen int `long:"content-max-len" env:"CONTENT_MAX_LEN" default:"4000" description:"Maximum assembled content length in characters"`
	FetchTimeout  int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"HTTP fetch timeout in seconds"`
	PageTimeout   int `long:"page-timeout" env:"PAGE_TIMEOUT" default:"30" description:"Browser page load timeout in seconds"`
	CourtesyDelay int `long:"courtesy-delay" env:"COURTESY_DELAY" default:"1000" description:"Default delay between detail page loads in milliseconds"`

	// Attachment configuration
	AttachmentWorkers  int   `long:"attachment-workers" env:"ATTACHMENT_WORKERS" default:"4" description:"Number of attachment extractions running concurrently"`
	AttachmentTimeout  int   `long:"attachment-timeout" env:"ATTACHMENT_TIMEOUT" default:"10" description:"Per-attachment extraction timeout in seconds"`
	AttachmentMaxBytes int64 `long:"attachment-max-bytes" env:"ATTACHMENT_MAX_BYTES" default:"5242880" description:"Per-attachment download ceiling in bytes"`
	AttachmentMaxPages int   `long:"attachment-max-pages" env:"ATTACHMENT_MAX_PAGES" default:"3" description:"Number of pages parsed from paginated documents"`

	// Application metadata
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"MouWelfare Crawler/1.0" description:"User agent string for HTTP requests"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Timezone     string `long:"timezone" env:"TZ" default:"Asia/Taipei" description:"Timezone for timestamps"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
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
		SourcesDir:         raw.SourcesDir,
		Port:               raw.Port,
		OutputPath:         raw.OutputPath,
		DBPath:             raw.DBPath,
		SourceWorkers:      raw.SourceWorkers,
		ContentMaxLen:      raw.ContentMaxLen,
		FetchTimeout:       raw.FetchTimeout,
		PageTimeout:        raw.PageTimeout,
		CourtesyDelay:      raw.CourtesyDelay,
		AttachmentWorkers:  raw.AttachmentWorkers,
		AttachmentTimeout:  raw.AttachmentTimeout,
		AttachmentMaxBytes: raw.AttachmentMaxBytes,
		AttachmentMaxPages: raw.AttachmentMaxPages,
		UserAgent:          raw.UserAgent,
		APIAccessKey:       raw.APIAccessKey,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
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
		}
	}
	return nil
}
