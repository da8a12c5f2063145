package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/serpdiff/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PORT", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":8080" || c.PageSize != 50 || c.MaxUploadMB != 32 || c.LogLevel != "info" || c.LogJSON {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.DelimiterRune() != 0 || c.MaxUploadBytes() != 32<<20 {
		t.Fatalf("unexpected derived values: %q %d", c.DelimiterRune(), c.MaxUploadBytes())
	}
}

func TestLoadEnvAndPort(t *testing.T) {
	isolate(t)
	t.Setenv("SERPDIFF_PAGE_SIZE", "10")
	t.Setenv("SERPDIFF_LOG_JSON", "true")
	t.Setenv("PORT", "9090")
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PageSize != 10 || !c.LogJSON || c.Addr != ":9090" {
		t.Fatalf("env not applied: %+v", c)
	}

	t.Setenv("SERPDIFF_ADDR", "127.0.0.1:7000")
	c, err = config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != "127.0.0.1:7000" {
		t.Fatalf("explicit addr should win over PORT, got %q", c.Addr)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("load missing explicit file: %v", err)
	}
	if err := c.Set("page_size", "25"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("delimiter", "tab"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := config.Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.PageSize != 25 || got.DelimiterRune() != '\t' {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestSaveDefaultPath(t *testing.T) {
	home := isolate(t)
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := config.Save(c, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".serpdiff", "config.yaml")); err != nil {
		t.Fatalf("expected config under home: %v", err)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("page_size: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestSetValidation(t *testing.T) {
	c := &config.Global{}
	bad := map[string]string{
		"page_size":     "0",
		"max_upload_mb": "x",
		"delimiter":     ";;",
		"log_level":     "loud",
		"log_json":      "maybe",
		"addr":          "",
		"nope":          "1",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Fatalf("expected error for %s=%q", k, v)
		}
	}
	if err := c.Set("addr", "8081"); err != nil || c.Addr != ":8081" {
		t.Fatalf("addr normalization: %q %v", c.Addr, err)
	}
	if err := c.Set("log_level", "DEBUG"); err != nil || c.LogLevel != "debug" {
		t.Fatalf("log level: %q %v", c.LogLevel, err)
	}
	if err := c.Set("delimiter", ";"); err != nil || c.DelimiterRune() != ';' {
		t.Fatalf("delimiter: %q %v", c.Delimiter, err)
	}
}
