package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sakura-subtrans/internal/llm"
	"github.com/MimeLyc/sakura-subtrans/internal/sanitize"
	"github.com/MimeLyc/sakura-subtrans/internal/translator"
	"github.com/MimeLyc/sakura-subtrans/pkg/icron"
)

// Config holds all application configuration.
// Values are layered: defaults, then the optional TOML file, then
// environment variables, then Options (command line flags).
//
// Environment Variables:
// LLM Configuration: see llm.Config (LLM_API_URL, LLM_API_KEY, LLM_MODEL,
// LLM_MAX_TOKENS, LLM_TEMPERATURE, LLM_REPEAT_PENALTY, LLM_TIMEOUT,
// LLM_CONTEXT_SIZE)
//
// Translate Configuration:
// - INPUT_PATH: subtitle file to translate
// - OUTPUT_PATH: output file (default: <name>.bilingual<ext> next to the input)
// - TRANSLATE_MODE: auto, batch or line (default: auto)
// - BATCH_SIZE: lines per batch prompt (default: 6)
// - MAX_WORKERS: concurrent line tasks (default: 2)
// - LINE_MAX_TOKENS: token limit of single-line completions, capped by
//   LLM_MAX_TOKENS (default: 150)
// - TARGET_LANGUAGE: BCP 47 tag of the translation (default: zh)
// - GLOSSARY_PATH: term map file (default: closest term_map.ja-zh.json or
//   .toml in the input's directory or its ancestors)
//
// Watch Configuration:
// - WATCH_DIR: directory scanned for new subtitles
// - CRON_EXPR: scan schedule (default: */10 * * * *)
//
// System Configuration:
// - LOG_LEVEL: debug, info, warn or error (default: info)
// - LOG_FILE: also append log entries to this file (optional)
//
// Sanitizer thresholds are only read from the [sanitize] table of the file.
type Config struct {
	// LLM Configuration
	LLM llm.Config `json:"llm" toml:"llm"`

	// Translate Configuration
	Translate TranslateConfig `json:"translate" toml:"translate"`

	// Watch Configuration
	Watch WatchConfig `json:"watch" toml:"watch"`

	// Sanitizer thresholds
	Sanitize sanitize.Thresholds `json:"sanitize" toml:"sanitize"`

	LogLevel string `json:"log_level" toml:"log_level"`
	LogFile  string `json:"log_file" toml:"log_file"`
}

type TranslateConfig struct {
	Input          string       `json:"input" toml:"input"`
	Output         string       `json:"output" toml:"output"`
	Mode           string       `json:"mode" toml:"mode"`
	BatchSize      int          `json:"batch_size" toml:"batch_size"`
	Workers        int          `json:"workers" toml:"workers"`
	LineMaxTokens  int          `json:"line_max_tokens" toml:"line_max_tokens"`
	TargetLanguage language.Tag `json:"target_language" toml:"target_language"`
	Glossary       string       `json:"glossary" toml:"glossary"`
}

type WatchConfig struct {
	Dir      string `json:"dir" toml:"dir"`
	CronExpr string `json:"cron_expr" toml:"cron_expr"`
}

const (
	DefaultBatchSize = 6
	DefaultWorkers   = 2
	DefaultCronExpr  = "*/10 * * * *"

	DefaultLineMaxTokens = 150
)

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		LLM: llm.Config{
			APIURL:        "http://127.0.0.1:8080/v1",
			Model:         "sakura-7b",
			MaxTokens:     1024,
			Temperature:   0.1,
			RepeatPenalty: 0, // each prompt kind keeps its own default
			Timeout:       120,
			ContextSize:   2048,
		},
		Translate: TranslateConfig{
			Mode:           translator.ModeAuto.String(),
			BatchSize:      DefaultBatchSize,
			Workers:        DefaultWorkers,
			LineMaxTokens:  DefaultLineMaxTokens,
			TargetLanguage: language.Chinese,
		},
		Watch: WatchConfig{
			CronExpr: DefaultCronExpr,
		},
		Sanitize: sanitize.DefaultThresholds(),
		LogLevel: "info",
	}
}

// Option is a function type for configuring Config
type Option func(*Config)

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. An empty path loads ./.env when
// it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from the TOML file at path (optional),
// the environment and opts.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("failed to parse config file %s at %d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LLM.APIKey = getEnvString("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.APIURL = getEnvString("LLM_API_URL", c.LLM.APIURL)
	c.LLM.Model = getEnvString("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.RepeatPenalty = getEnvFloat("LLM_REPEAT_PENALTY", c.LLM.RepeatPenalty)
	c.LLM.Timeout = getEnvInt("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.ContextSize = getEnvInt("LLM_CONTEXT_SIZE", c.LLM.ContextSize)

	c.Translate.Input = getEnvString("INPUT_PATH", c.Translate.Input)
	c.Translate.Output = getEnvString("OUTPUT_PATH", c.Translate.Output)
	c.Translate.Mode = getEnvString("TRANSLATE_MODE", c.Translate.Mode)
	c.Translate.BatchSize = getEnvInt("BATCH_SIZE", c.Translate.BatchSize)
	c.Translate.Workers = getEnvInt("MAX_WORKERS", c.Translate.Workers)
	c.Translate.LineMaxTokens = getEnvInt("LINE_MAX_TOKENS", c.Translate.LineMaxTokens)
	c.Translate.TargetLanguage = getEnvTag("TARGET_LANGUAGE", c.Translate.TargetLanguage)
	c.Translate.Glossary = getEnvString("GLOSSARY_PATH", c.Translate.Glossary)

	c.Watch.Dir = getEnvString("WATCH_DIR", c.Watch.Dir)
	c.Watch.CronExpr = getEnvString("CRON_EXPR", c.Watch.CronExpr)

	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnvString("LOG_FILE", c.LogFile)
}

// normalize replaces sizes that cannot drive a run with their defaults
func (c *Config) normalize() {
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = DefaultBatchSize
	}
	if c.Translate.Workers <= 0 {
		c.Translate.Workers = DefaultWorkers
	}
	if c.Translate.LineMaxTokens <= 0 {
		c.Translate.LineMaxTokens = DefaultLineMaxTokens
	}
	if strings.TrimSpace(c.Watch.CronExpr) == "" {
		c.Watch.CronExpr = DefaultCronExpr
	}
	c.Translate.Mode = strings.ToLower(strings.TrimSpace(c.Translate.Mode))
	c.Sanitize = c.Sanitize.WithDefaults()
}

// Validate checks if all required configuration is properly set
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid llm config: %w", err)
	}
	if _, err := translator.ParseMode(c.Translate.Mode); err != nil {
		return err
	}
	if err := icron.Validate(c.Watch.CronExpr); err != nil {
		return err
	}
	return nil
}

// TranslateMode returns the parsed mode. Validate has already accepted it.
func (c *Config) TranslateMode() translator.Mode {
	mode, _ := translator.ParseMode(c.Translate.Mode)
	return mode
}

// LineMaxTokens is the token limit of single-line completions. It never
// exceeds the general LLM limit.
func (c *Config) LineMaxTokens() int {
	n := c.Translate.LineMaxTokens
	if n <= 0 {
		n = DefaultLineMaxTokens
	}
	if c.LLM.MaxTokens > 0 && c.LLM.MaxTokens < n {
		n = c.LLM.MaxTokens
	}
	return n
}

func WithInput(path string) Option {
	return func(c *Config) { c.Translate.Input = path }
}

func WithOutput(path string) Option {
	return func(c *Config) { c.Translate.Output = path }
}

func WithMode(mode string) Option {
	return func(c *Config) { c.Translate.Mode = mode }
}

func WithBatchSize(n int) Option {
	return func(c *Config) { c.Translate.BatchSize = n }
}

func WithWorkers(n int) Option {
	return func(c *Config) { c.Translate.Workers = n }
}

func WithGlossary(path string) Option {
	return func(c *Config) { c.Translate.Glossary = path }
}

func WithWatchDir(dir string) Option {
	return func(c *Config) { c.Watch.Dir = dir }
}

func WithCronExpr(expr string) Option {
	return func(c *Config) { c.Watch.CronExpr = expr }
}

func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvTag gets a language tag from environment variables with default
func getEnvTag(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(strings.TrimSpace(value)); err == nil {
			return tag
		}
	}
	return defaultValue
}
