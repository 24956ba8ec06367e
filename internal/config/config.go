// Package config provides environment configuration for the assistant.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notifier transports.
const (
	NotifierSMTP = "smtp"
	NotifierSES  = "ses"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	StaticDir          string
	AllowedOrigins     []string

	// Telegram
	TelegramToken string

	// LLM settings
	LLMProvider     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMModel        string
	LLMTimeout      time.Duration
	CTAThreshold    int

	// Retrieval
	TopicsFile      string
	ContentSelector string
	FetchTimeout    time.Duration
	PerLocatorLimit int
	ContextLimit    int

	// Lead delivery
	Notifier       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	ContactAddress string
	AWSRegion      string
	SESFromAddress string

	// State
	RedisURL  string
	IntakeTTL time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3000"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 90*time.Second),
		StaticDir:          getEnv("STATIC_DIR", ""),
		AllowedOrigins:     getListEnv("CORS_ALLOWED_ORIGINS"),

		// Telegram
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 30*time.Second),
		CTAThreshold:    getIntEnv("CTA_THRESHOLD", 3),

		// Retrieval
		TopicsFile:      getEnv("TOPICS_FILE", ""),
		ContentSelector: getEnv("CONTENT_SELECTOR", "main"),
		FetchTimeout:    getDurationEnv("FETCH_TIMEOUT", 10*time.Second),
		PerLocatorLimit: getIntEnv("PER_LOCATOR_LIMIT", 1500),
		ContextLimit:    getIntEnv("CONTEXT_LIMIT", 12000),

		// Lead delivery
		Notifier:       strings.ToLower(getEnv("NOTIFIER", NotifierSMTP)),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getIntEnv("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		ContactAddress: getEnv("DESTINO_CONTACTO", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromAddress: getEnv("SES_FROM", ""),

		// State
		RedisURL:  getEnv("REDIS_URL", ""),
		IntakeTTL: getDurationEnv("INTAKE_TTL", 24*time.Hour),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate reports settings that make startup impossible.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.ContactAddress == "" {
		errs = append(errs, errors.New("DESTINO_CONTACTO is required"))
	}
	switch c.Notifier {
	case NotifierSMTP:
		if c.SMTPUser == "" || c.SMTPPass == "" {
			errs = append(errs, errors.New("SMTP_USER and SMTP_PASS are required"))
		}
	case NotifierSES:
		if c.SESFromAddress == "" {
			errs = append(errs, errors.New("SES_FROM is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	if c.PerLocatorLimit < 0 || c.ContextLimit <= 0 {
		errs = append(errs, errors.New("PER_LOCATOR_LIMIT must be >= 0 and CONTEXT_LIMIT > 0"))
	}

	return errors.Join(errs...)
}

// LLMAPIKey returns the key of the selected provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
