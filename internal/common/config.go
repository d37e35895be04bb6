package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	OCR     OCRConfig
	Ingest  IngestConfig
	LLM     LLMConfig
	Log     LogConfig
	Scoring ScoringConfig
}

// ServerConfig holds daemon listener addresses
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string

	// MaxUploadBytes bounds multipart uploads on the HTTP API.
	MaxUploadBytes int64
}

const (
	OCRProviderOCRSpace  = "ocrspace"
	OCRProviderAzure     = "azure"
	OCRProviderTesseract = "tesseract"

	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Provider       string
	APIKey         string
	Endpoint       string
	AzureEndpoint  string
	AzureKey       string
	TessdataDir    string
	Timeout        time.Duration
	RatePerSecond  float64
	Enhance        bool
	CacheDSN       string
	CacheMaxConns  int32
	CacheStmtLimit time.Duration
}

// IngestConfig controls how source files become page images
type IngestConfig struct {
	PDFToPPM string
	DPI      int
	MaxPages int

	// JPEGQuality applies to every page image handed to OCR.
	JPEGQuality int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	GoogleAPIKey string
	GeminiModel  string
	Temperature  float32
	Timeout      time.Duration
	Attempts     int
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string
	Format string
}

// ScoringConfig carries optional overrides loaded from SCORING_FILE.
type ScoringConfig struct {
	File          string              `toml:"-"`
	Weights       map[string]float64  `toml:"weights"`
	DefaultFields map[string][]string `toml:"fields"`
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first when present; real env vars win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "read .env", errors.Join(ErrConfiguration, err))
	}

	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":9090"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 25<<20),
		},
		OCR: OCRConfig{
			Provider:       strings.ToLower(getEnv("OCR_PROVIDER", OCRProviderOCRSpace)),
			APIKey:         getEnv("OCR_API_KEY", ""),
			Endpoint:       getEnv("OCR_API_ENDPOINT", "https://api.ocr.space/parse/image"),
			AzureEndpoint:  getEnv("AZURE_VISION_ENDPOINT", ""),
			AzureKey:       getEnv("AZURE_VISION_KEY", ""),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			Timeout:        getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			RatePerSecond:  getEnvAsFloat64("OCR_RATE_PER_SEC", 2),
			Enhance:        getEnvAsBool("OCR_ENHANCE", false),
			CacheDSN:       getEnv("OCR_CACHE_DSN", ""),
			CacheMaxConns:  getEnvAsInt32("OCR_CACHE_MAX_CONNS", 4),
			CacheStmtLimit: getEnvAsDuration("OCR_CACHE_STATEMENT_TIMEOUT", 0),
		},
		Ingest: IngestConfig{
			PDFToPPM:    getEnv("PDFTOPPM", "pdftoppm"),
			DPI:         getEnvAsInt("PDF_DPI", 300),
			MaxPages:    getEnvAsInt("PDF_MAX_PAGES", 20),
			JPEGQuality: 85,
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOpenAI)),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			Attempts:     getEnvAsInt("LLM_ATTEMPTS", 3),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Scoring: ScoringConfig{
			File: getEnv("SCORING_FILE", ""),
		},
	}

	if cfg.Scoring.File != "" {
		if err := cfg.Scoring.load(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (s *ScoringConfig) load() error {
	raw, err := os.ReadFile(s.File)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read scoring file", errors.Join(ErrConfiguration, err))
	}
	return s.decode(raw)
}

func (s *ScoringConfig) decode(raw []byte) error {
	if err := toml.Unmarshal(raw, s); err != nil {
		return NewAppError("CONFIG_ERROR", "parse scoring file", errors.Join(ErrConfiguration, err))
	}
	for name, w := range s.Weights {
		if w <= 0 {
			return NewAppError("CONFIG_ERROR", fmt.Sprintf("weight for %q must be positive", name), ErrConfiguration)
		}
	}
	return nil
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate checks that the selected providers have their credentials.
func (c *Config) Validate() error {
	switch c.OCR.Provider {
	case OCRProviderOCRSpace:
		if c.OCR.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OCR_API_KEY is required", ErrConfiguration)
		}
	case OCRProviderAzure:
		if c.OCR.AzureEndpoint == "" || c.OCR.AzureKey == "" {
			return NewAppError("CONFIG_ERROR", "AZURE_VISION_ENDPOINT and AZURE_VISION_KEY are required", ErrConfiguration)
		}
	case OCRProviderTesseract:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR_PROVIDER %q", c.OCR.Provider), ErrConfiguration)
	}

	switch c.LLM.Provider {
	case LLMProviderOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrConfiguration)
		}
	case LLMProviderGemini:
		if c.LLM.GoogleAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GOOGLE_API_KEY is required", ErrConfiguration)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrConfiguration)
	}

	if c.LLM.Attempts < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_ATTEMPTS must be at least 1", ErrConfiguration)
	}
	if c.Ingest.MaxPages < 1 {
		return NewAppError("CONFIG_ERROR", "PDF_MAX_PAGES must be at least 1", ErrConfiguration)
	}
	if c.OCR.RatePerSecond < 0 {
		return NewAppError("CONFIG_ERROR", "OCR_RATE_PER_SEC must not be negative", ErrConfiguration)
	}
	return nil
}
