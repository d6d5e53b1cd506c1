// Package config loads process configuration from an optional .env file,
// the environment and an optional YAML file of scheduler parameters.
//
// Precedence, highest first: environment variables, .env file, parameter
// file, built-in defaults. The result is read once at startup and treated as
// immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/langler/internal/spaced_repetition"
)

// Supported DB_TYPE values.
const (
	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
)

// Config holds every setting of the process.
type Config struct {
	DBType      string
	DatabaseURL string
	SQLitePath  string

	TelegramBotToken string

	EnableScheduler       bool
	NotificationStartHour int
	NotificationEndHour   int

	LevelCacheTTL      time.Duration
	CacheSweepInterval time.Duration

	LogLevel    string
	MetricsAddr string

	ParamsFile string
	Scheduler  spaced_repetition.Parameters
}

// paramsFile mirrors the YAML parameter file. Every field is optional.
type paramsFile struct {
	Weights          []float64 `yaml:"weights"`
	DesiredRetention *float64  `yaml:"desired_retention"`
	MaximumInterval  *int      `yaml:"maximum_interval"`
	EnableFuzz       *bool     `yaml:"enable_fuzz"`
	LearningSteps    []string  `yaml:"learning_steps"`
	RelearningSteps  []string  `yaml:"relearning_steps"`
}

// Load reads envFile if it exists and builds a Config from the environment.
// A missing env file is not an error; an explicitly named but unreadable
// parameter file is.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	env := &envReader{}
	cfg := &Config{
		DBType:                strings.ToLower(getEnv("DB_TYPE", DBSQLite)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SQLitePath:            getEnv("SQLITE_PATH", "data/langler.db"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		EnableScheduler:       env.getBool("ENABLE_SCHEDULER", true),
		NotificationStartHour: env.getInt("NOTIFICATION_START_HOUR", 8),
		NotificationEndHour:   env.getInt("NOTIFICATION_END_HOUR", 22),
		LevelCacheTTL:         env.getDuration("LEVEL_CACHE_TTL", 600*time.Second),
		CacheSweepInterval:    env.getDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MetricsAddr:           os.Getenv("METRICS_ADDR"),
		ParamsFile:            os.Getenv("FSRS_PARAMS_FILE"),
		Scheduler:             spaced_repetition.DefaultParameters(),
	}

	if cfg.ParamsFile != "" {
		if err := cfg.loadParamsFile(cfg.ParamsFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.applySchedulerEnv(env); err != nil {
		return nil, err
	}
	if err := env.err(); err != nil {
		return nil, fmt.Errorf("malformed environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadParamsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read parameter file: %w", err)
	}
	var pf paramsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}

	p := &c.Scheduler
	if len(pf.Weights) > 0 {
		p.Weights = pf.Weights
	}
	if pf.DesiredRetention != nil {
		p.DesiredRetention = *pf.DesiredRetention
	}
	if pf.MaximumInterval != nil {
		p.MaximumInterval = *pf.MaximumInterval
	}
	if pf.EnableFuzz != nil {
		p.EnableFuzz = *pf.EnableFuzz
	}
	if pf.LearningSteps != nil {
		if p.LearningSteps, err = parseDurations(pf.LearningSteps); err != nil {
			return fmt.Errorf("learning_steps: %w", err)
		}
	}
	if pf.RelearningSteps != nil {
		if p.RelearningSteps, err = parseDurations(pf.RelearningSteps); err != nil {
			return fmt.Errorf("relearning_steps: %w", err)
		}
	}
	return nil
}

func (c *Config) applySchedulerEnv(env *envReader) error {
	p := &c.Scheduler
	p.DesiredRetention = env.getFloat("FSRS_DESIRED_RETENTION", p.DesiredRetention)
	p.MaximumInterval = env.getInt("FSRS_MAXIMUM_INTERVAL", p.MaximumInterval)
	p.EnableFuzz = env.getBool("FSRS_ENABLE_FUZZ", p.EnableFuzz)

	var err error
	if v := os.Getenv("FSRS_LEARNING_STEPS"); v != "" {
		if p.LearningSteps, err = parseMinutes(v); err != nil {
			return fmt.Errorf("FSRS_LEARNING_STEPS: %w", err)
		}
	}
	if v := os.Getenv("FSRS_RELEARNING_STEPS"); v != "" {
		if p.RelearningSteps, err = parseMinutes(v); err != nil {
			return fmt.Errorf("FSRS_RELEARNING_STEPS: %w", err)
		}
	}
	return nil
}

// Validate checks the settings that the rest of the process relies on.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite")
		}
	case DBPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return fmt.Errorf("notification hours must be within 0-23, got %d-%d",
			c.NotificationStartHour, c.NotificationEndHour)
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("NOTIFICATION_START_HOUR %d is after NOTIFICATION_END_HOUR %d",
			c.NotificationStartHour, c.NotificationEndHour)
	}
	if c.LevelCacheTTL <= 0 {
		return errors.New("LEVEL_CACHE_TTL must be positive")
	}
	if c.CacheSweepInterval <= 0 {
		return errors.New("CACHE_SWEEP_INTERVAL must be positive")
	}
	return c.Scheduler.Validate()
}

// SchedulerParameters returns a copy of the configured FSRS parameters.
func (c *Config) SchedulerParameters() spaced_repetition.Parameters {
	p := c.Scheduler
	p.Weights = append([]float64(nil), p.Weights...)
	p.LearningSteps = append([]time.Duration(nil), p.LearningSteps...)
	p.RelearningSteps = append([]time.Duration(nil), p.RelearningSteps...)
	return p
}

// InNotificationWindow reports whether hour lies within the configured
// notification hours, bounds included.
func (c *Config) InNotificationWindow(hour int) bool {
	return hour >= c.NotificationStartHour && hour <= c.NotificationEndHour
}

func validHour(h int) bool { return h >= 0 && h <= 23 }

// parseMinutes parses "1, 10" into one-minute and ten-minute steps.
func parseMinutes(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid minutes %q", part)
		}
		out = append(out, time.Duration(m*float64(time.Minute)))
	}
	return out, nil
}

func parseDurations(in []string) ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(in))
	for _, s := range in {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envReader parses typed variables and keeps every malformed value as an
// error instead of falling back to the default.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, val string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, val, err))
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		r.fail(key, val, err)
		return defaultVal
	}
	return i
}

func (r *envReader) getFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		r.fail(key, val, err)
		return defaultVal
	}
	return f
}

func (r *envReader) getBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		r.fail(key, val, err)
		return defaultVal
	}
	return b
}

// getDuration accepts Go durations ("10m") or plain seconds ("600").
func (r *envReader) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		r.fail(key, val, errors.New("not a duration"))
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
