// Package config holds the crawl run configuration assembled from
// defaults, environment variables and command-line flags.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

// Defaults applied when neither flags nor environment provide a value.
const (
	DefaultThreads        = 10
	DefaultRetries        = 3
	DefaultDepth          = 5
	DefaultMinRelevancy   = 1.0
	DefaultParser         = "simple"
	DefaultProcessor      = "pdf"
	DefaultDownloadFolder = "files"
	DefaultDBPath         = "pdfcrawl.db"
	DefaultLogDBPath      = "pdfcrawl-log.db"
	DefaultUserAgent      = "pdfcrawl/1.0"
	DefaultTimeout        = 30 * time.Second
)

// Config is the full configuration for one crawl run.
type Config struct {
	// Seed is the starting URL. Empty means resume the queue persisted by
	// the previous run.
	Seed string

	// Reset drops and recreates the crawl database schema.
	Reset bool

	// PreserveQueue keeps the pending queue from a previous run instead of
	// clearing it before seeding.
	PreserveQueue bool

	// Parser and Processor name registered implementations.
	Parser    string
	Processor string

	// AllDomains lifts the same-authority restriction on discovered links.
	AllDomains bool

	// Threads is the worker count.
	Threads int

	// Retries is the per-URL fetch attempt cap.
	Retries int

	// Keywords drive document relevancy scoring. With no keywords every
	// document scores zero, so MinRelevancy is forced to zero too.
	Keywords []string

	// DownloadFolder receives accepted documents. RejectedFolder receives
	// rejected ones; empty means rejected files are not written.
	DownloadFolder string
	RejectedFolder string

	// Depth is the maximum link distance from the seed. Zero disables the
	// limit.
	Depth int

	// MinRelevancy is the document acceptance threshold.
	MinRelevancy float64

	// Verbose enables debug logging.
	Verbose bool

	// DBPath and LogDBPath locate the crawl and log database files.
	DBPath    string
	LogDBPath string

	// UserAgent is sent on every request, including robots.txt fetches.
	UserAgent string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Logger configures the structured logger.
	Logger logger.Config
}

// SetDefaults installs the configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("threads", DefaultThreads)
	v.SetDefault("retries", DefaultRetries)
	v.SetDefault("depth", DefaultDepth)
	v.SetDefault("min_relevancy", DefaultMinRelevancy)
	v.SetDefault("parser", DefaultParser)
	v.SetDefault("processor", DefaultProcessor)
	v.SetDefault("download_folder", DefaultDownloadFolder)
	v.SetDefault("db", DefaultDBPath)
	v.SetDefault("log_db", DefaultLogDBPath)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("logger.level", string(logger.InfoLevel))
	v.SetDefault("logger.encoding", "console")
}

// Load assembles a Config from v. Call after flags are bound.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Reset:          v.GetBool("reset"),
		PreserveQueue:  v.GetBool("preserve_queue"),
		Parser:         v.GetString("parser"),
		Processor:      v.GetString("processor"),
		AllDomains:     v.GetBool("all_domains"),
		Threads:        v.GetInt("threads"),
		Retries:        v.GetInt("retries"),
		Keywords:       v.GetStringSlice("keywords"),
		DownloadFolder: v.GetString("download_folder"),
		RejectedFolder: v.GetString("rejected_folder"),
		Depth:          v.GetInt("depth"),
		MinRelevancy:   v.GetFloat64("min_relevancy"),
		Verbose:        v.GetBool("verbose"),
		DBPath:         v.GetString("db"),
		LogDBPath:      v.GetString("log_db"),
		UserAgent:      v.GetString("user_agent"),
		Timeout:        v.GetDuration("timeout"),
		Logger: logger.Config{
			Level:    logger.Level(v.GetString("logger.level")),
			Encoding: v.GetString("logger.encoding"),
		},
	}

	// Without keywords every document scores zero; a non-zero threshold
	// would silently reject everything.
	if len(cfg.Keywords) == 0 {
		cfg.MinRelevancy = 0
	}

	if cfg.Verbose {
		cfg.Logger.Level = logger.DebugLevel
		cfg.Logger.Development = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges. The seed is validated separately by the
// frontier, which owns URL normalization.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return ErrInvalidThreads
	}
	if c.Retries < 1 {
		return ErrInvalidRetries
	}
	if c.Depth < 0 {
		return ErrInvalidDepth
	}
	if c.MinRelevancy < 0 {
		return ErrInvalidRelevancy
	}
	if c.DownloadFolder == "" {
		return ErrMissingDownloadFolder
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
