package cmd

import (
	"strings"
	"testing"

	"github.com/AlhasanIQ/oriki/config"
)

func TestSetupInteractivePresets(t *testing.T) {
	setTestHome(t)

	_, errOut, err := runCLI(t, "2\n2\n\n", "setup", "--skip-ping")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !strings.Contains(errOut, "Setup complete") {
		t.Fatalf("expected completion message, got %q", errOut)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Environment != config.EnvironmentProduction || cfg.APIBaseURL != "" {
		t.Fatalf("expected production preset, got %q %q", cfg.Environment, cfg.APIBaseURL)
	}
	if cfg.Cache.Backend != config.CacheBackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Voice != "alloy" {
		t.Fatalf("expected default voice kept, got %q", cfg.Voice)
	}
}

func TestSetupInteractiveCustomURLAndPing(t *testing.T) {
	setTestHome(t)
	_, url := newFakeService(t)

	input := strings.Join([]string{"3", "ftp://example.com", url + "/", "none", "nova"}, "\n") + "\n"
	_, errOut, err := runCLI(t, input, "setup")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !strings.Contains(errOut, "must use http or https") {
		t.Fatalf("expected invalid url to be reported, got %q", errOut)
	}
	if !strings.Contains(errOut, "oriki-api is healthy") {
		t.Fatalf("expected health check after setup, got %q", errOut)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.APIBaseURL != url {
		t.Fatalf("expected api_base_url %q, got %q", url, cfg.APIBaseURL)
	}
	if cfg.Cache.Backend != config.CacheBackendNone || cfg.Voice != "nova" {
		t.Fatalf("unexpected cache/voice: %q %q", cfg.Cache.Backend, cfg.Voice)
	}
}

func TestSetupRedisNeedsAddress(t *testing.T) {
	setTestHome(t)

	_, _, err := runCLI(t, "1\n3\n\n", "setup", "--skip-ping")
	if err == nil || !strings.Contains(err.Error(), "cache.redis_addr is required") {
		t.Fatalf("expected redis address error, got %v", err)
	}
}

func TestSetupRejectsOutOfRangeChoice(t *testing.T) {
	setTestHome(t)

	_, errOut, err := runCLI(t, "9\n1\n1\n\n", "setup", "--skip-ping")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !strings.Contains(errOut, "Pick 1-3.") {
		t.Fatalf("expected retry prompt, got %q", errOut)
	}
}

func TestSetupNonInteractive(t *testing.T) {
	setTestHome(t)
	if _, _, err := runCLI(t, "", "config", "set", "cache.backend", "redis"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, _, err := runCLI(t, "", "setup", "--non-interactive")
	if err != nil {
		t.Fatalf("setup --non-interactive: %v", err)
	}
	for _, want := range []string{
		"Setup checklist (non-interactive)",
		"Service:     " + config.LocalBaseURL,
		"Cache:       redis",
		"oriki config set cache.redis_addr",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in checklist:\n%s", want, out)
		}
	}
}
