package common

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/results-tracker/internal/core/pipeline"
)

// ConfigPathEnv names the optional YAML overlay file.
const ConfigPathEnv = "RESULTS_CONFIG"

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig  `yaml:"database"`
	Server     ServerConfig    `yaml:"server"`
	OCR        OCRConfig       `yaml:"ocr"`
	Extraction pipeline.Config `yaml:"extraction"`
	Export     ExportConfig    `yaml:"export"`
	Batch      BatchConfig     `yaml:"batch"`
	Log        LogConfig       `yaml:"log"`
}

// DatabaseConfig holds database-related configuration.
// DSN is a sqlite file path (or ":memory:") or a postgres:// URL.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftotext        string   `yaml:"pdftotext"`
	Pdftoppm         string   `yaml:"pdftoppm"`
	Tesseract        string   `yaml:"tesseract"`
	Language         string   `yaml:"language"`
	DPI              int      `yaml:"dpi"`
	MaxPages         int      `yaml:"max_pages"`
	PSM              int      `yaml:"psm"`
	OEM              int      `yaml:"oem"`
	HeicConverter    string   `yaml:"heic_converter"`
	TessdataDir      string   `yaml:"tessdata_dir"`
	ArtifactCacheDir string   `yaml:"artifact_cache_dir"`
	Engine           string   `yaml:"engine"` // cli | gosseract
	Variants         []string `yaml:"variants"`
}

// ExportConfig holds workbook export configuration
type ExportConfig struct {
	TemplatePath   string            `yaml:"template_path"`
	Sheet          string            `yaml:"sheet"`
	FailFill       string            `yaml:"fail_fill"`
	PassInternal   int               `yaml:"pass_internal"`
	PassExternal   int               `yaml:"pass_external"`
	PassTotal      int               `yaml:"pass_total"`
	NoFailSubjects []string          `yaml:"no_fail_subjects"`
	ActivityFills  map[string]string `yaml:"activity_fills"`
	MaxTotals      map[string]int    `yaml:"max_totals"`
}

// BatchConfig holds worker and inbox configuration
type BatchConfig struct {
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	StreamTimeout time.Duration `yaml:"stream_timeout"`
	Debounce      time.Duration `yaml:"debounce"`
	InboxRoots    []string      `yaml:"inbox_roots"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "results.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Pdftotext:        getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:         getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:        getEnv("TESSERACT_BIN", "tesseract"),
			Language:         getEnv("OCR_LANG", "eng"),
			DPI:              getEnvAsInt("OCR_DPI", 300),
			MaxPages:         getEnvAsInt("OCR_MAX_PAGES", 0),
			PSM:              getEnvAsInt("OCR_PSM", 6),
			OEM:              getEnvAsInt("OCR_OEM", 0),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			Engine:           getEnv("OCR_ENGINE", "cli"),
			Variants:         getEnvAsList("OCR_VARIANTS", nil),
		},
		Extraction: pipeline.DefaultConfig(),
		Export: ExportConfig{
			TemplatePath:   getEnv("EXPORT_TEMPLATE", ""),
			Sheet:          getEnv("EXPORT_SHEET", ""),
			FailFill:       getEnv("EXPORT_FAIL_FILL", "FFD60A"),
			PassInternal:   getEnvAsInt("PASS_INTERNAL", 18),
			PassExternal:   getEnvAsInt("PASS_EXTERNAL", 18),
			PassTotal:      getEnvAsInt("PASS_TOTAL", 36),
			NoFailSubjects: getEnvAsList("EXPORT_NO_FAIL_SUBJECTS", []string{"BAI586", "BAI786"}),
			ActivityFills:  map[string]string{"BPEK559": "CFE2F3", "BNSK559": "EAD1DC"},
			MaxTotals:      map[string]int{"BAI786": 200},
		},
		Batch: BatchConfig{
			Workers:       getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:     getEnvAsInt("BATCH_QUEUE_SIZE", 256),
			StreamTimeout: getEnvAsDuration("BATCH_STREAM_TIMEOUT", 3*time.Minute),
			Debounce:      getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			InboxRoots:    getEnvAsList("INBOX_ROOTS", nil),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// LoadConfigFile loads the environment configuration and overlays the YAML
// file at path. An empty path falls back to $RESULTS_CONFIG; if both are
// empty the environment configuration is returned unchanged.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "read config file", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("database.dsn", c.Database.DSN, Required).
		Field("ocr.engine", c.OCR.Engine, OneOf("cli", "gosseract")).
		Field("ocr.dpi", c.OCR.DPI, Positive).
		Field("extraction.thresholds.ok", c.Extraction.Thresholds.OK, Fraction).
		Field("extraction.thresholds.partial", c.Extraction.Thresholds.Partial, Fraction).
		Field("export.fail_fill", c.Export.FailFill, HexColor).
		Field("batch.workers", c.Batch.Workers, Positive).
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, OneOf("json", "text"))
	for code, fill := range c.Export.ActivityFills {
		v.Field("export.activity_fills."+code, fill, HexColor)
	}
	if c.Extraction.Thresholds.Partial > c.Extraction.Thresholds.OK {
		v.Add("extraction.thresholds", c.Extraction.Thresholds, "partial must not exceed ok")
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
