package config

import (
	"testing"
	"time"
)

func TestLoad_ServicePorts(t *testing.T) {
	t.Setenv("SERVICE_NAME", "promoter-api")
	t.Setenv("HTTP_PORT", "8181")

	cfg := Load()
	if cfg.HTTPPort != "8181" {
		t.Errorf("HTTPPort = %q, want 8181", cfg.HTTPPort)
	}
	if cfg.MetricsPort != "9095" {
		t.Errorf("MetricsPort = %q, want 9095", cfg.MetricsPort)
	}
}

func TestLoad_DurationsAndInts(t *testing.T) {
	t.Setenv("CROWN_INTERVAL", "250ms")
	t.Setenv("SCRAPE_FAILURE_CEILING", "9")
	t.Setenv("FINAL_POLL_INTERVAL", "not-a-duration")

	cfg := Load()
	if cfg.CrownInterval != 250*time.Millisecond {
		t.Errorf("CrownInterval = %v", cfg.CrownInterval)
	}
	if cfg.ScrapeFailureCeiling != 9 {
		t.Errorf("ScrapeFailureCeiling = %d", cfg.ScrapeFailureCeiling)
	}
	if cfg.FinalPollInterval != 30*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.FinalPollInterval)
	}
}
