package config

import (
	"testing"
	"time"
)

func valid() Config {
	return Config{
		App:       AppConfig{Env: "local", Port: 8080},
		DB:        DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "calllogd"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		Auth:      AuthConfig{JWTSecret: "secret"},
		Directory: DirectoryConfig{BaseURL: "http://dird:9489"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := valid()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "callogd"
	c.Auth.JWTAudience = "wazo"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := valid()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Generation.BatchLimit != 1000 {
		t.Fatalf("expected batch limit default, got %d", c.Generation.BatchLimit)
	}
	if c.Generation.Interval != time.Minute {
		t.Fatalf("expected interval default, got %v", c.Generation.Interval)
	}
	if c.Directory.Timeout != 10*time.Second {
		t.Fatalf("expected directory timeout default, got %v", c.Directory.Timeout)
	}
}

func TestOptionalDuration(t *testing.T) {
	t.Setenv("GEN_INTERVAL", "2m")
	var errs []error
	if d := optionalDuration("GEN_INTERVAL", &errs); d != 2*time.Minute || len(errs) != 0 {
		t.Fatalf("expected 2m with no errors, got %v %v", d, errs)
	}

	t.Setenv("GEN_INTERVAL", "")
	if d := optionalDuration("GEN_INTERVAL", &errs); d != 0 || len(errs) != 0 {
		t.Fatalf("unset key must be zero with no errors, got %v %v", d, errs)
	}

	t.Setenv("GEN_INTERVAL", "often")
	if d := optionalDuration("GEN_INTERVAL", &errs); d != 0 || len(errs) != 1 {
		t.Fatalf("malformed value must append a parse error, got %v %v", d, errs)
	}
}

func TestValidate_RequiresDirectoryBaseURL(t *testing.T) {
	c := valid()
	c.Directory.BaseURL = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing DIRD_BASE_URL")
	}
}
