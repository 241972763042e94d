package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	OCR      OCRConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string
	ShutdownTimeout time.Duration // how long queued OCR work may drain on exit
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Pdftoppm    string
	Lang        string
	TessdataDir string
	DPI         int
	MaxPages    int
	PSM         int
	OEM         int
	Timeout     time.Duration
	Workers     int
	QueueSize   int
}

// AnalysisConfig holds rule-evaluation and upload limits
type AnalysisConfig struct {
	ProductRulesFile   string
	ContractAnnotation string
	MaxUploadMB        int
	MaxDocuments       int
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables, reading .env first when present
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			GRPCAddr:        getEnv("GRPC_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Lang:        getEnv("TESSERACT_LANG", "por"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			PSM:         getEnvAsInt("OCR_PSM", 0),
			OEM:         getEnvAsInt("OCR_OEM", 0),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 0),
			Workers:     getEnvAsInt("OCR_WORKERS", 1),
			QueueSize:   getEnvAsInt("OCR_QUEUE_SIZE", 64),
		},
		Analysis: AnalysisConfig{
			ProductRulesFile:   getEnv("PRODUCT_RULES_FILE", ""),
			ContractAnnotation: strings.ToLower(getEnv("CONTRACT_ANNOTATION", "first")),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 25),
			MaxDocuments:       getEnvAsInt("MAX_DOCUMENTS", 0),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.GRPCAddr) == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.OCR.MaxPages < 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MAX_PAGES must not be negative", ErrInvalidInput)
	}
	if c.OCR.Timeout < 0 {
		return NewAppError("CONFIG_ERROR", "OCR_TIMEOUT must not be negative", ErrInvalidInput)
	}
	if c.OCR.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_WORKERS must be positive", ErrInvalidInput)
	}
	switch c.Analysis.ContractAnnotation {
	case "first", "none":
	default:
		return NewAppError("CONFIG_ERROR", "CONTRACT_ANNOTATION must be one of: first | none", ErrInvalidInput)
	}
	if c.Analysis.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.Analysis.MaxDocuments < 0 {
		return NewAppError("CONFIG_ERROR", "MAX_DOCUMENTS must not be negative", ErrInvalidInput)
	}
	return nil
}

// MaxUploadBytes is the per-document byte limit derived from MaxUploadMB.
func (c AnalysisConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}
