package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"keysync/internal/parser"
	"keysync/internal/textutil"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "keysync.yaml"

// Log levels accepted by LogLevel.
var logLevels = []interface{}{"debug", "info", "warn", "error"}

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9_+-]+$`)

// Config describes one reconciliation run.
type Config struct {
	SourceDir       string            `yaml:"source_dir"`
	Extension       string            `yaml:"extension"`
	PrimaryTable    string            `yaml:"primary_table"`
	SecondaryTables []string          `yaml:"secondary_tables"`
	Exclude         []string          `yaml:"exclude"`
	ExtraPatterns   []string          `yaml:"extra_patterns"`
	Defaults        map[string]string `yaml:"defaults"`
	WorkerCount     int               `yaml:"workers"`
	LogLevel        string            `yaml:"log_level"`
}

// Default returns the layout of a conventional Java project.
func Default() *Config {
	return &Config{
		SourceDir:    "./src",
		Extension:    parser.DefaultExtension,
		PrimaryTable: "./conf/language.properties",
		SecondaryTables: []string{
			"./conf/language_en.properties",
			"./conf/language_zh.properties",
		},
		WorkerCount: 1,
		LogLevel:    "info",
	}
}

// Tables returns the primary table followed by the secondary tables.
func (c *Config) Tables() []string {
	return append([]string{c.PrimaryTable}, c.SecondaryTables...)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SourceDir, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.Match(extensionPattern)),
		validation.Field(&c.PrimaryTable, validation.Required),
		validation.Field(&c.SecondaryTables, validation.Each(validation.Required)),
		validation.Field(&c.WorkerCount, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.LogLevel, validation.In(logLevels...)),
		validation.Field(&c.ExtraPatterns, validation.By(compiles)),
	)
}

func compiles(value interface{}) error {
	exprs, _ := value.([]string)
	_, err := parser.CompilePatterns(exprs)
	return err
}

// Load builds a Config from defaults, the YAML file at path, .env and the
// environment, in that order of precedence. An empty path reads DefaultFile
// when present; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		if err := LoadFile(file, cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	applyEnv(cfg)

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg, expanding ${VAR}
// references first.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.SourceDir = getEnv("KEYSYNC_SOURCE_DIR", cfg.SourceDir)
	cfg.Extension = getEnv("KEYSYNC_EXTENSION", cfg.Extension)
	cfg.PrimaryTable = getEnv("KEYSYNC_PRIMARY", cfg.PrimaryTable)
	if v := os.Getenv("KEYSYNC_SECONDARY"); v != "" {
		cfg.SecondaryTables = textutil.SplitList(v)
	}
	if v := os.Getenv("KEYSYNC_EXCLUDE"); v != "" {
		cfg.Exclude = textutil.SplitList(v)
	}
	cfg.WorkerCount = getEnvInt("KEYSYNC_WORKERS", cfg.WorkerCount)
	cfg.LogLevel = getEnv("KEYSYNC_LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric environment value")
		return fallback
	}
	return n
}
