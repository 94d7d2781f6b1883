package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/adrg/xdg"
)

func setupHome(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return dir
}

func TestLoadMerged_NoConfig(t *testing.T) {
	setupHome(t)

	cfg, used, err := LoadMerged(Options{Output: "out", Debug: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(used, "default config in memory") {
		t.Errorf("Expected in-memory default, got %q", used)
	}
	if cfg.Output != "out" || !cfg.Debug {
		t.Errorf("Expected flags merged, got output=%q debug=%t", cfg.Output, cfg.Debug)
	}
	if cfg.Detect != detect.DefaultTuning() {
		t.Errorf("Expected default tuning, got %+v", cfg.Detect)
	}
}

func TestLoadMerged_PartialProfile(t *testing.T) {
	setupHome(t)

	if _, err := InitDefaultConfig(); err != nil {
		t.Fatal(err)
	}

	yml := "image_workers: 9\nmin_confidence: 0.6\ndetect:\n  min_group_count: 3\n"
	if err := os.WriteFile(PathForLabel(DefaultLabel), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, used, err := LoadMerged(Options{ImageWorkers: 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if used != PathForLabel(DefaultLabel) {
		t.Errorf("Expected profile path, got %q", used)
	}
	if cfg.ImageWorkers != 2 {
		t.Errorf("Expected flag to override profile, got %d", cfg.ImageWorkers)
	}
	if cfg.MinConfidence != 0.6 {
		t.Errorf("Expected min_confidence from profile, got %v", cfg.MinConfidence)
	}
	if cfg.Detect.MinGroupCount != 3 {
		t.Errorf("Expected tuned min_group_count 3, got %d", cfg.Detect.MinGroupCount)
	}
	if cfg.Detect.MinPageScore != detect.MinPageScore {
		t.Errorf("Expected unset tuning keys to keep defaults, got %d", cfg.Detect.MinPageScore)
	}
}

func TestLoadMerged_InvalidTuning(t *testing.T) {
	setupHome(t)

	if _, err := InitDefaultConfig(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(PathForLabel(DefaultLabel), []byte("detect:\n  size_bucket_step: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadMerged(Options{}); err == nil {
		t.Error("Expected validation error for bad tuning")
	}

	if _, _, err := LoadMerged(Options{IgnoreConfig: true}); err != nil {
		t.Errorf("Expected ignored config to load, got %v", err)
	}
}

func TestProfiles(t *testing.T) {
	home := setupHome(t)

	path, err := InitDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, appName, "configs", "Default.yaml"); path != want {
		t.Errorf("Expected %q, got %q", want, path)
	}
	if _, err := InitDefaultConfig(); !errors.Is(err, os.ErrExist) {
		t.Errorf("Expected ErrExist on second init, got %v", err)
	}

	if _, err := AddConfig("fast", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := AddConfig("fast", ""); err == nil {
		t.Error("Expected duplicate label error")
	}
	if _, err := AddConfig("../escape", ""); err == nil {
		t.Error("Expected invalid label error")
	}

	if err := SwitchConfig("fast"); err != nil {
		t.Fatal(err)
	}
	if label, _ := CurrentLabel(); label != "fast" {
		t.Errorf("Expected active fast, got %q", label)
	}

	if err := RenameConfig("fast", "quick"); err != nil {
		t.Fatal(err)
	}
	if label, _ := CurrentLabel(); label != "quick" {
		t.Errorf("Expected rename to follow active label, got %q", label)
	}

	list, err := ListConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Label != "Default" || list[1].Label != "quick" || !list[1].Active {
		t.Errorf("Unexpected profile list: %+v", list)
	}

	switched, err := RemoveConfig("quick")
	if err != nil {
		t.Fatal(err)
	}
	if !switched {
		t.Error("Expected removal of active profile to switch back")
	}
	if label, _ := CurrentLabel(); label != DefaultLabel {
		t.Errorf("Expected Default active, got %q", label)
	}

	if _, err := RemoveConfig(DefaultLabel); err == nil {
		t.Error("Expected Default to be protected")
	}
}

func TestPrint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detect.MinGroupCount = 6

	var buf bytes.Buffer
	cfg.Print(&buf)

	if !strings.Contains(buf.String(), "min_group_count=6 ") {
		t.Errorf("Expected customized tuning line, got:\n%s", buf.String())
	}
}
