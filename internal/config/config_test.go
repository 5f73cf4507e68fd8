package config

import (
	"errors"
	"flag"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, envMap(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "oprema.sqlite3" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Environment != EnvProduction || cfg.IsDevelopment() {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if cfg.SuperAdminPIN != "" {
		t.Errorf("SuperAdminPIN should be empty")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LoginRate != 10 || cfg.LoginBurst != 5 {
		t.Errorf("login limits = %d/%d", cfg.LoginRate, cfg.LoginBurst)
	}
}

func TestLoadPrecedence(t *testing.T) {
	env := envMap(map[string]string{
		"OPREMA_DB":           "env.sqlite3",
		"OPREMA_ADDR":         ":9000",
		"LOG_LEVEL":           "DEBUG",
		"OPREMA_ENV":          "development",
		"SUPER_ADMIN_PIN":     "9999",
		"OPREMA_CORS_ORIGINS": "https://a.example, https://b.example",
	})

	cfg, err := Load([]string{"-d", "flag.sqlite3", "-token-ttl", "1h"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "flag.sqlite3" {
		t.Errorf("flag should win over env, got %q", cfg.DBPath)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("env should win over default, got %q", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment")
	}
	if cfg.SuperAdminPIN != "9999" {
		t.Errorf("SuperAdminPIN = %q", cfg.SuperAdminPIN)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad pin", nil, map[string]string{"SUPER_ADMIN_PIN": "12345"}},
		{"bad ttl", []string{"-token-ttl", "soon"}, nil},
		{"negative ttl", []string{"-token-ttl", "-1h"}, nil},
		{"bad level", []string{"-log-level", "trace"}, nil},
		{"bad env", []string{"-e", "staging"}, nil},
		{"bad rate", []string{"-login-rate", "0"}, nil},
		{"media url", []string{"-media-url", "media"}, nil},
		{"extra arg", []string{"serve"}, nil},
		{"unknown flag", []string{"-nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args, envMap(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"-h"}, envMap(nil))
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}
