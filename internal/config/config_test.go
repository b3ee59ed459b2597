package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MSAClientID != DefaultMSAClientID {
		t.Errorf("MSAClientID = %q, want default", cfg.MSAClientID)
	}
	if cfg.DownloadConcurrency != defaultConcurrency {
		t.Errorf("DownloadConcurrency = %d, want %d", cfg.DownloadConcurrency, defaultConcurrency)
	}
	if cfg.StrictSizeValidation {
		t.Error("StrictSizeValidation should default to false, preserving the permissive behavior")
	}
	if cfg.CommonDir == "" || cfg.InstanceDir == "" || cfg.LauncherDir == "" {
		t.Errorf("expected non-empty directory roots, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dataDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dataDir
	cfg.JavaPath = "/usr/lib/jvm/custom/bin/java"
	cfg.Theme = "light"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, "config.json"))
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	var onDisk Config
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if onDisk.JavaPath != cfg.JavaPath || onDisk.Theme != cfg.Theme {
		t.Errorf("saved config = %+v, want JavaPath/Theme to match %+v", onDisk, cfg)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MSAClientID != DefaultMSAClientID {
		t.Errorf("MSAClientID = %q, want default when no config file exists", cfg.MSAClientID)
	}
}

func TestLoad_EnvironmentOverridesWinOverDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("LAUNCHERCORE_JAVA_PATH", "/opt/custom-jdk/bin/java")
	t.Setenv("LAUNCHERCORE_STRICT_SIZE_VALIDATION", "true")
	t.Setenv("LAUNCHERCORE_DOWNLOAD_CONCURRENCY", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JavaPath != "/opt/custom-jdk/bin/java" {
		t.Errorf("JavaPath = %q, want environment override", cfg.JavaPath)
	}
	if !cfg.StrictSizeValidation {
		t.Error("StrictSizeValidation should be overridden to true by the environment")
	}
	if cfg.DownloadConcurrency != 4 {
		t.Errorf("DownloadConcurrency = %d, want 4 from environment override", cfg.DownloadConcurrency)
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.CommonDir = filepath.Join(cfg.DataDir, "common")
	cfg.InstanceDir = filepath.Join(cfg.DataDir, "instances")
	cfg.AssetsDir = filepath.Join(cfg.CommonDir, "assets")
	cfg.LibrariesDir = filepath.Join(cfg.CommonDir, "libraries")

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.CommonDir, cfg.InstanceDir, cfg.AssetsDir, cfg.LibrariesDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory at %s", dir)
		}
	}
}
