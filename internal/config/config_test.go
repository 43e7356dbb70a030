package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("GATEWAY_URL", "http://localhost:8000")
	t.Setenv("PORT", "4173")
	t.Setenv("OAUTH_CLIENT_ID", "client-id")
	t.Setenv("OAUTH_CLIENT_ID_FILE", "")
	t.Setenv("STATE_DIR", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.RefreshInterval != 50*time.Minute {
		t.Fatalf("expected default refresh interval 50m, got %v", cfg.RefreshInterval)
	}
	if cfg.HTTPPort != 4173 {
		t.Fatalf("expected port 4173, got %d", cfg.HTTPPort)
	}
	if cfg.TestLogin {
		t.Fatal("test login must default to disabled")
	}
	if !strings.HasSuffix(cfg.SessionFile(), "session.json") {
		t.Fatalf("unexpected session file %q", cfg.SessionFile())
	}
}

func TestLoadRejectsInvalidRefreshInterval(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REFRESH_INTERVAL", "fifty minutes")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable refresh interval")
	}

	t.Setenv("REFRESH_INTERVAL", "-5m")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative refresh interval")
	}
}

func TestLoadRejectsTestLoginOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://events.example.edu")
	t.Setenv("TEST_LOGIN_ENABLED", "true")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when test login enabled outside development")
	}
	if !strings.Contains(err.Error(), "TEST_LOGIN_ENABLED") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsWildcardOriginsOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://events.example.edu,*")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ALLOWED_ORIGINS contains wildcard")
	}
	if !strings.Contains(err.Error(), "wildcard") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOAuthConfigured(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.OAuthConfigured() {
		t.Fatal("OAuth must not be considered configured without an auth URL")
	}

	t.Setenv("OAUTH_AUTH_URL", "https://provider.test/authorize")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !cfg.OAuthConfigured() {
		t.Fatal("expected OAuthConfigured() to be true")
	}
}

func TestLoadTrimsGatewayURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GATEWAY_URL", "http://localhost:8000/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.GatewayURL != "http://localhost:8000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.GatewayURL)
	}
}
