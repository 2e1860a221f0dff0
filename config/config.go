package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/upb/route-optimizer/models"
)

// Provider selectors accepted by LLM_PROVIDER
const (
	ProviderRemote = "remote"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// Config represents the complete application configuration.
// It is read once at startup and never mutated afterwards.
type Config struct {
	Server        ServerConfig
	CORS          CORSConfig
	LLM           LLMConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string
}

// LLMConfig selects and parameterizes the model backend
type LLMConfig struct {
	Enabled           bool
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	LocalURL          string
	Timeout           time.Duration
	StatusTimeout     time.Duration
	CheckReachability bool
	MaxCallsPerSecond float64
	Temperature       float64
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New loads .env files, the optional YAML or TOML file named by CONFIG_FILE and
// the process environment. Environment variables win over the file.
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		values, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	cfg := &Config{
		Environment: src.getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            src.getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            src.port(),
			ReadTimeout:     src.getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    src.getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: src.getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  src.getDuration("SERVER_REQUEST_TIMEOUT", 55*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(src.getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		},
		LLM: LLMConfig{
			Enabled:           src.getBool("LLM_ENABLED", true),
			Provider:          strings.ToLower(strings.TrimSpace(src.getEnv("LLM_PROVIDER", ProviderNone))),
			APIKey:            src.getEnv("LLM_API_KEY", src.getEnv("OPENAI_API_KEY", "")),
			Model:             src.getEnv("LLM_MODEL", ""),
			BaseURL:           src.getEnv("LLM_BASE_URL", ""),
			LocalURL:          src.getEnv("LLM_LOCAL_URL", "http://localhost:11434"),
			Timeout:           src.getDuration("LLM_TIMEOUT", 30*time.Second),
			StatusTimeout:     src.getDuration("LLM_STATUS_TIMEOUT", 3*time.Second),
			CheckReachability: src.getBool("LLM_CHECK_REACHABILITY", true),
			MaxCallsPerSecond: src.getFloat("LLM_MAX_CALLS_PER_SECOND", 0),
			Temperature:       src.getFloat("LLM_TEMPERATURE", 0.1),
		},
		Observability: ObservabilityConfig{
			LogLevel:       src.getEnv("LOG_LEVEL", "info"),
			LogFormat:      src.getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: src.getBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	switch c.LLM.Provider {
	case ProviderRemote, ProviderOpenAI, ProviderLocal, ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("unknown LLM provider %q (want remote, openai, local, ollama or none)", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	if c.LLM.StatusTimeout <= 0 {
		return fmt.Errorf("LLM status timeout must be positive")
	}
	if c.LLM.MaxCallsPerSecond < 0 {
		return fmt.Errorf("LLM max calls per second cannot be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	switch c.Observability.LogFormat {
	case "json", "console", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Observability.LogFormat)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Kind maps the provider selector to its deployment shape
func (c *LLMConfig) Kind() models.ProviderKind {
	switch c.Provider {
	case ProviderRemote, ProviderOpenAI:
		return models.ProviderKindRemote
	case ProviderLocal, ProviderOllama:
		return models.ProviderKindLocal
	default:
		return models.ProviderKindNone
	}
}

// Configured reports whether a backend is selected and has what it needs
// to be called. A remote backend needs a credential.
func (c *LLMConfig) Configured() bool {
	switch c.Kind() {
	case models.ProviderKindRemote:
		return c.APIKey != ""
	case models.ProviderKindLocal:
		return c.LocalURL != ""
	default:
		return false
	}
}

// Endpoint returns the base URL for the selected backend
func (c *LLMConfig) Endpoint() string {
	if c.Kind() == models.ProviderKindLocal {
		return c.LocalURL
	}
	return c.BaseURL
}

// Helper functions

// source resolves a key from the environment first, then the config file
type source struct {
	file map[string]string
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch typed := v.(type) {
		case nil:
			continue
		case []interface{}:
			parts := make([]string, len(typed))
			for i, item := range typed {
				parts[i] = fmt.Sprint(item)
			}
			values[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			values[strings.ToUpper(k)] = fmt.Sprint(typed)
		}
	}
	return values, nil
}

func (s source) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

// port returns the server port from PORT or SERVER_PORT (default: 8000)
func (s source) port() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := s.lookup(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
}

func (s source) getEnv(key, defaultValue string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s.lookup(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func (s source) getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(s.lookup(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(s.lookup(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
