package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `server: http://localhost:8080
strategy: statements
context: 5
include:
  - src/**
timeout: 30s
compress: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CODELEARN_CONTEXT", "1")
	t.Setenv("CODELEARN_TOKEN", "secret")
	t.Setenv("CODELEARN_EXCLUDE", "a/**, b/**")
	t.Setenv("CODELEARN_WORKERS", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != "http://localhost:8080" || cfg.Strategy != "statements" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Context != 1 {
		t.Errorf("env should override file, got context %d", cfg.Context)
	}
	if cfg.Timeout != 30*time.Second || !cfg.Compress {
		t.Errorf("unexpected timeout/compress %v %v", cfg.Timeout, cfg.Compress)
	}
	if cfg.Token != "secret" {
		t.Errorf("expected token from env, got %q", cfg.Token)
	}
	if !reflect.DeepEqual(cfg.Include, []string{"src/**"}) || !reflect.DeepEqual(cfg.Exclude, []string{"a/**", "b/**"}) {
		t.Errorf("unexpected patterns %v %v", cfg.Include, cfg.Exclude)
	}
	if cfg.Workers != 0 {
		t.Errorf("invalid env value should be ignored, got %d", cfg.Workers)
	}
	if cfg.Ref != "HEAD" {
		t.Errorf("unset values keep defaults, got ref %q", cfg.Ref)
	}
}

func TestLoad_TokenNotReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("token: leaked\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Token != "" {
		t.Errorf("token must only come from the environment, got %q", cfg.Token)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("context: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
