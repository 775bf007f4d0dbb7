package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chatglue plugin service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	HostGatewayURL    string
	HostGatewayToken  string
	HostCommandPrefix string

	ProviderMode    string
	ProviderAPIKey  string
	ProviderBaseURL string
	ProviderModel   string
	ProviderHTTPURL string
	// ProviderTimeout bounds a single completion call. Zero disables the
	// client-side timeout and defers entirely to the host's own policy.
	ProviderTimeout time.Duration

	DatabaseURL string

	HistoryMaxTurns    int
	HistoryPromptTurns int
	LockRegistryMax    int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "chatglue"),
		HostGatewayURL:     stringsTrimSpace("HOST_GATEWAY_URL"),
		HostGatewayToken:   stringsTrimSpace("HOST_GATEWAY_TOKEN"),
		HostCommandPrefix:  envOrDefault("HOST_COMMAND_PREFIX", "/"),
		ProviderMode:       envOrDefault("PROVIDER_MODE", "auto"),
		ProviderAPIKey:     stringsTrimSpace("PROVIDER_API_KEY"),
		ProviderBaseURL:    stringsTrimSpace("PROVIDER_BASE_URL"),
		ProviderModel:      envOrDefault("PROVIDER_MODEL", "gpt-4o-mini"),
		ProviderHTTPURL:    stringsTrimSpace("PROVIDER_HTTP_URL"),
		ProviderTimeout:    60 * time.Second,
		DatabaseURL:        stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:    15 * time.Second,
		HistoryMaxTurns:    200,
		HistoryPromptTurns: 15,
		LockRegistryMax:    4096,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderTimeout, err = durationFromEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxTurns, err = intFromEnv("HISTORY_MAX_TURNS", cfg.HistoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryPromptTurns, err = intFromEnv("HISTORY_PROMPT_TURNS", cfg.HistoryPromptTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.LockRegistryMax, err = intFromEnv("LOCK_REGISTRY_MAX", cfg.LockRegistryMax)
	if err != nil {
		return Config{}, err
	}

	if cfg.HistoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_TURNS must be positive")
	}
	if cfg.HistoryPromptTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_PROMPT_TURNS must be positive")
	}
	if cfg.HistoryPromptTurns > cfg.HistoryMaxTurns {
		return Config{}, fmt.Errorf("HISTORY_PROMPT_TURNS must not exceed HISTORY_MAX_TURNS")
	}
	if cfg.LockRegistryMax <= 0 {
		return Config{}, fmt.Errorf("LOCK_REGISTRY_MAX must be positive")
	}
	if cfg.ProviderTimeout < 0 {
		return Config{}, fmt.Errorf("PROVIDER_TIMEOUT must not be negative")
	}
	if cfg.HostCommandPrefix == "" {
		return Config{}, fmt.Errorf("HOST_COMMAND_PREFIX must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
