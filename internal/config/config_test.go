package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Predictions != "public/plinko/predict/predictions.yaml" {
		t.Fatalf("unexpected default predictions path: %s", cfg.Paths.Predictions)
	}
	if cfg.Serve.Schedule != "0 9 * * 1" {
		t.Fatalf("unexpected default schedule: %s", cfg.Serve.Schedule)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
paths:
  predictions: testdata/predictions.yaml
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Predictions != "testdata/predictions.yaml" {
		t.Fatalf("overlay not applied: %s", cfg.Paths.Predictions)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("overlay not applied: %s", cfg.Logging.Level)
	}
	// Untouched fields keep their defaults.
	if cfg.Mail.APIURL != "https://api.convertkit.com/v3" {
		t.Fatalf("default lost: %s", cfg.Mail.APIURL)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("nope: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeFileJSONTrailingData(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "m.json")
	if err := os.WriteFile(path, []byte(`{"a":1}{"b":2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	var out map[string]int
	err := DecodeFile(path, &out)
	if err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("expected trailing data error, got %v", err)
	}
}

func TestDecodeFileEmptyYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out struct {
		A string `json:"a"`
	}
	if err := DecodeFile(path, &out); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if out.A != "" {
		t.Fatalf("expected zero value, got %q", out.A)
	}
}

func TestDecodeFileIntegerKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	if err := os.WriteFile(path, []byte("202533: Pac-Man\n202534: Galaga\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out map[string]string
	if err := DecodeFile(path, &out); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if out["202533"] != "Pac-Man" {
		t.Fatalf("integer key not stringified: %v", out)
	}
}
