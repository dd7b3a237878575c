package config

import (
	"strings"
	"testing"
)

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Fit.NMinima != 3 || cfg.Fit.MinDeltaChi2 != 25 {
		t.Errorf("fit defaults wrong: %+v", cfg.Fit)
	}
	if cfg.Cache.Enabled {
		t.Error("cache enabled in local config")
	}
}

func TestLoad_MissingEnv(t *testing.T) {
	if _, err := Load("no-such-env"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http defaults: %+v", cfg.HTTP)
	}
	if cfg.Fit.NMinima != 3 || cfg.Fit.MaxVeloDiffKms != 1000 ||
		cfg.Fit.MinDeltaChi2 != 25 || cfg.Fit.DegLegendre != 3 || cfg.Fit.Workers != 4 {
		t.Errorf("fit defaults: %+v", cfg.Fit)
	}
	if cfg.Cache.TTLSec != 3600 {
		t.Errorf("cache ttl default: %d", cfg.Cache.TTLSec)
	}
	if cfg.Fit.TemplateDir != "templates" {
		t.Errorf("template dir default: %q", cfg.Fit.TemplateDir)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{}
		c.ApplyDefaults()
		c.HTTP.Port = 8080
		return c
	}

	c := base()
	if err := c.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c = base()
	c.HTTP.Port = 0
	if err := c.Validate(); err == nil {
		t.Error("zero port accepted")
	}

	c = base()
	c.Cache.Enabled = true
	c.Cache.Addrs = nil
	if err := c.Validate(); err == nil {
		t.Error("enabled cache without addrs accepted")
	}

	c = base()
	c.Fit.NNeighbors = -1
	if err := c.Validate(); err == nil {
		t.Error("negative nneighbors accepted")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REDROCK_TEST_VAR", "from-env")

	got := string(expandEnvVars([]byte("a: ${REDROCK_TEST_VAR}\nb: ${REDROCK_UNSET:-fallback}\nc: ${REDROCK_UNSET}")))
	if !strings.Contains(got, "a: from-env") {
		t.Errorf("set variable not expanded: %q", got)
	}
	if !strings.Contains(got, "b: fallback") {
		t.Errorf("default not applied: %q", got)
	}
	if !strings.Contains(got, "c: \n") && !strings.HasSuffix(got, "c: ") {
		t.Errorf("unset variable not emptied: %q", got)
	}
}
