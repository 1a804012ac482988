package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	// Create a temp config file
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 8080\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("openrouter:\n  api_key: ${NUTRI_TEST_KEY}\n"), 0600)
	os.Setenv("NUTRI_TEST_KEY", "sk-or-secret123")
	defer os.Unsetenv("NUTRI_TEST_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OpenRouter.APIKey != "sk-or-secret123" {
		t.Errorf("api_key = %q, want %q", cfg.OpenRouter.APIKey, "sk-or-secret123")
	}
}

func TestLoad_DefaultsPreserved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9000\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Listen.Port)
	}
	if cfg.Agent.MaxToolRounds != 8 {
		t.Errorf("max_tool_rounds = %d, want default 8", cfg.Agent.MaxToolRounds)
	}
	if cfg.Agent.HistoryTokenBudget != 12000 {
		t.Errorf("history_token_budget = %d, want default 12000", cfg.Agent.HistoryTokenBudget)
	}
	if cfg.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("base_url = %q, want default", cfg.OpenRouter.BaseURL)
	}
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject empty openrouter.api_key")
	}

	cfg.OpenRouter.APIKey = "sk-or-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidate_RejectsWeakJWTSecret(t *testing.T) {
	cfg := Default()
	cfg.OpenRouter.APIKey = "sk-or-test"
	cfg.Auth.Enabled = true

	for _, secret := range []string{"", "changeme", "secret"} {
		cfg.Auth.JWTSecret = secret
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate should reject jwt_secret %q", secret)
		}
	}

	cfg.Auth.JWTSecret = "a-long-random-string-for-tests"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"trace", false},
		{"DEBUG", false},
		{"", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"verbose", true},
	}
	for _, c := range cases {
		_, err := ParseLogLevel(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
		}
	}
}
