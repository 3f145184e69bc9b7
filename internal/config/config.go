package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/dustin/go-humanize"
)

const (
	defaultSSTURL    = "https://climatereanalyzer.org/clim/sst_daily/json_2clim/oisst2.1_natlan_sst_day.json"
	defaultSeaIceURL = "https://noaadata.apps.nsidc.org/NOAA/G02135/south/daily/data/S_seaice_extent_daily_v4.0.csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaSinkTopic  string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka writer batching.
	BatchSize          int
	BatchFlushInterval time.Duration

	ReportInterval time.Duration
	FetchTimeout   time.Duration
	FetchCacheSize int
	// FetchMaxBody caps one upstream document, in bytes.
	FetchMaxBody   int64
	OutputDir      string
	PublishEnabled bool

	SST    SourceConfig
	SeaIce SourceConfig
}

// SourceConfig locates one upstream series and its reference period.
type SourceConfig struct {
	URL            string
	ReferenceStart int
	ReferenceEnd   int
	// MinYear drops earlier records when non-zero.
	MinYear int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	reportInterval, err := parsePositiveDuration("REPORT_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	fetchMaxBody, err := parseByteSize("FETCH_MAX_BODY", "64MiB")
	if err != nil {
		return nil, err
	}

	sst, err := loadSource("SST", defaultSSTURL, 1982, 2010, 0)
	if err != nil {
		return nil, err
	}

	seaIce, err := loadSource("SEAICE", defaultSeaIceURL, 1981, 2010, 1981)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "climate-anomaly-reports"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ReportInterval: reportInterval,
		FetchTimeout:   fetchTimeout,
		FetchCacheSize: parsePositiveInt("FETCH_CACHE_SIZE", 16),
		FetchMaxBody:   fetchMaxBody,
		OutputDir:      sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		PublishEnabled: os.Getenv("PUBLISH_ENABLED") != "false",

		SST:    sst,
		SeaIce: seaIce,
	}

	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.PublishEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func loadSource(prefix, defaultURL string, defaultStart, defaultEnd, defaultMinYear int) (SourceConfig, error) {
	src := SourceConfig{
		URL: sharedcfg.EnvOrDefault(prefix+"_URL", defaultURL),
	}

	var err error
	if src.ReferenceStart, err = parseYear(prefix+"_REFERENCE_START", defaultStart); err != nil {
		return SourceConfig{}, err
	}
	if src.ReferenceEnd, err = parseYear(prefix+"_REFERENCE_END", defaultEnd); err != nil {
		return SourceConfig{}, err
	}
	if src.MinYear, err = parseYear(prefix+"_MIN_YEAR", defaultMinYear); err != nil {
		return SourceConfig{}, err
	}

	if src.URL == "" {
		return SourceConfig{}, fmt.Errorf("%s_URL is required", prefix)
	}
	if src.ReferenceStart > src.ReferenceEnd {
		return SourceConfig{}, fmt.Errorf("%s_REFERENCE_START %d is after %s_REFERENCE_END %d",
			prefix, src.ReferenceStart, prefix, src.ReferenceEnd)
	}
	if src.MinYear != 0 && src.MinYear > src.ReferenceEnd {
		return SourceConfig{}, fmt.Errorf("%s_MIN_YEAR %d excludes the reference period", prefix, src.MinYear)
	}
	return src, nil
}

func parseYear(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseByteSize accepts human sizes such as "64MiB" or "10 MB".
func parseByteSize(key, fallback string) (int64, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	n, err := humanize.ParseBytes(s)
	if err != nil || n == 0 || n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return int64(n), nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
