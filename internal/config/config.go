package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the campuspass client shell.
// Everything the shell needs is injected from here at process start;
// components never read ambient globals for backend addresses or storage
// paths.
type Config struct {
	Environment      string
	HTTPPort         int
	GatewayURL       string
	OAuthClientID    string
	OAuthAuthURL     string
	OAuthRedirectURL string
	RefreshInterval  time.Duration
	LogLevel         string
	AllowedOrigins   []string
	StateDir         string
	SuperAdminLogin  bool
	TestLogin        bool
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() (Config, error) {
	clientID, err := getEnvOrFile("OAUTH_CLIENT_ID", "/run/secrets/campuspass_oauth_client_id")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:      getEnv("APP_ENV", "development"),
		GatewayURL:       strings.TrimSuffix(getEnv("GATEWAY_URL", "http://localhost:8000"), "/"),
		OAuthClientID:    strings.TrimSpace(clientID),
		OAuthAuthURL:     getEnv("OAUTH_AUTH_URL", ""),
		OAuthRedirectURL: getEnv("OAUTH_REDIRECT_URL", "http://localhost:4173/callback"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:   parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:4173")),
		StateDir:         getEnv("STATE_DIR", defaultStateDir()),
		SuperAdminLogin:  parseBool(getEnv("SUPERADMIN_LOGIN_ENABLED", "true")),
		TestLogin:        parseBool(getEnv("TEST_LOGIN_ENABLED", "false")),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "4173"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	intervalValue := getEnv("REFRESH_INTERVAL", "50m")
	interval, err := time.ParseDuration(intervalValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid refresh interval %q: %w", intervalValue, err)
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("refresh interval must be positive, got %q", intervalValue)
	}
	cfg.RefreshInterval = interval

	isDev := strings.EqualFold(cfg.Environment, "development")

	if cfg.GatewayURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_URL is required")
	}
	if cfg.TestLogin && !isDev {
		return Config{}, fmt.Errorf("TEST_LOGIN_ENABLED is only allowed in development")
	}
	if !isDev {
		if len(cfg.AllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("ALLOWED_ORIGINS must define at least one origin outside development")
		}
		for _, origin := range cfg.AllowedOrigins {
			if origin == "*" {
				return Config{}, fmt.Errorf("ALLOWED_ORIGINS cannot contain wildcard outside development")
			}
		}
	}

	return cfg, nil
}

// HTTPAddress returns the address the shell should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// SessionFile is the path of the durable session slot.
func (c Config) SessionFile() string {
	return filepath.Join(c.StateDir, "session.json")
}

// OAuthConfigured reports whether redirect-based login can be initiated
// from this deployment. The callback route works regardless: the provider
// may be configured out-of-band and still redirect here.
func (c Config) OAuthConfigured() bool {
	return c.OAuthClientID != "" && c.OAuthAuthURL != ""
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "campuspass")
	}
	return ".campuspass"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
