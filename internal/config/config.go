// Package config handles application configuration: on-disk defaults
// serialized the way the teacher always has (plain `encoding/json`),
// generalized with a `viper` layer so environment variables and an
// optional config file can override those defaults before the struct
// is ever written to or read from disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quasar/launchercore/internal/java"
)

// Config holds the application configuration.
type Config struct {
	// Paths. DataDir is the top-level root (holds managed Java runtimes
	// under "runtime/<major>-<arch>"); CommonDir and InstanceDir are the two
	// roots the Distribution Index Processor resolves module paths
	// against (spec.md §6's <common>/<instance>); LauncherDir is where
	// distribution.json (or distribution_dev.json) lives.
	DataDir      string `json:"dataDir" mapstructure:"data_dir"`
	CommonDir    string `json:"commonDir" mapstructure:"common_dir"`
	InstanceDir  string `json:"instanceDir" mapstructure:"instance_dir"`
	LauncherDir  string `json:"launcherDir" mapstructure:"launcher_dir"`
	AssetsDir    string `json:"assetsDir" mapstructure:"assets_dir"`
	LibrariesDir string `json:"librariesDir" mapstructure:"libraries_dir"`

	// Java.
	JavaPath         string            `json:"javaPath" mapstructure:"java_path"`
	JVMArgs          []string          `json:"jvmArgs" mapstructure:"jvm_args"`
	JavaDistribution java.Distribution `json:"javaDistribution" mapstructure:"java_distribution"`

	// Download Engine.
	DownloadConcurrency  int  `json:"downloadConcurrency" mapstructure:"download_concurrency"`
	StrictSizeValidation bool `json:"strictSizeValidation" mapstructure:"strict_size_validation"`

	// Dev mode: read distribution_dev.json instead of distribution.json
	// (spec.md §6's persisted state layout).
	DevMode bool `json:"devMode" mapstructure:"dev_mode"`

	// UI preferences.
	Theme         string `json:"theme" mapstructure:"theme"`
	ShowSnapshots bool   `json:"showSnapshots" mapstructure:"show_snapshots"`

	// Auth.
	MSAClientID string `json:"msaClientID" mapstructure:"msa_client_id"`
}

const (
	DefaultMSAClientID = "c36a9fb6-4f2a-41ff-90bd-ae7cc92031eb"
	envPrefix          = "LAUNCHERCORE"
	defaultConcurrency = 15
)

// DefaultConfig returns a config with sensible defaults, before any
// file or environment override is applied.
func DefaultConfig() *Config {
	dataDir := getDefaultDataDir()
	return &Config{
		DataDir:              dataDir,
		CommonDir:            filepath.Join(dataDir, "common"),
		InstanceDir:          filepath.Join(dataDir, "instances"),
		LauncherDir:          dataDir,
		AssetsDir:            filepath.Join(dataDir, "common", "assets"),
		LibrariesDir:         filepath.Join(dataDir, "common", "libraries"),
		JVMArgs:              []string{"-Xmx2G", "-Xms512M"},
		JavaDistribution:     java.DefaultDistribution(),
		DownloadConcurrency:  defaultConcurrency,
		Theme:                "dark",
		ShowSnapshots:        false,
		MSAClientID:          DefaultMSAClientID,
		StrictSizeValidation: false,
	}
}

// Load reads config from disk, then layers environment-variable
// overrides on top through viper: any LAUNCHERCORE_<FIELD> variable
// (e.g. LAUNCHERCORE_JAVA_PATH) wins over both the default and the
// on-disk value, matching celestiaorg-popsigner's popctl config layer.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := filepath.Join(cfg.DataDir, "config.json")
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// use defaults
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
		}
	}

	if cfg.MSAClientID == "" {
		cfg.MSAClientID = DefaultMSAClientID
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("config: applying environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides seeds viper with cfg's current values as defaults,
// lets viper look each key up as its LAUNCHERCORE_<FIELD> environment
// variable, then reads every scalar field back into cfg — so any variable
// actually set in the environment wins, and everything else is left
// exactly as Load (or DefaultConfig) already produced it. JVMArgs has no
// environment override.
func applyEnvOverrides(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("common_dir", cfg.CommonDir)
	v.SetDefault("instance_dir", cfg.InstanceDir)
	v.SetDefault("launcher_dir", cfg.LauncherDir)
	v.SetDefault("assets_dir", cfg.AssetsDir)
	v.SetDefault("libraries_dir", cfg.LibrariesDir)
	v.SetDefault("java_path", cfg.JavaPath)
	v.SetDefault("java_distribution", string(cfg.JavaDistribution))
	v.SetDefault("download_concurrency", cfg.DownloadConcurrency)
	v.SetDefault("strict_size_validation", cfg.StrictSizeValidation)
	v.SetDefault("dev_mode", cfg.DevMode)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("show_snapshots", cfg.ShowSnapshots)
	v.SetDefault("msa_client_id", cfg.MSAClientID)

	cfg.DataDir = v.GetString("data_dir")
	cfg.CommonDir = v.GetString("common_dir")
	cfg.InstanceDir = v.GetString("instance_dir")
	cfg.LauncherDir = v.GetString("launcher_dir")
	cfg.AssetsDir = v.GetString("assets_dir")
	cfg.LibrariesDir = v.GetString("libraries_dir")
	cfg.JavaPath = v.GetString("java_path")
	cfg.JavaDistribution = java.Distribution(v.GetString("java_distribution"))
	cfg.DownloadConcurrency = v.GetInt("download_concurrency")
	cfg.StrictSizeValidation = v.GetBool("strict_size_validation")
	cfg.DevMode = v.GetBool("dev_mode")
	cfg.Theme = v.GetString("theme")
	cfg.ShowSnapshots = v.GetBool("show_snapshots")
	cfg.MSAClientID = v.GetString("msa_client_id")
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	configPath := filepath.Join(c.DataDir, "config.json")
	return os.WriteFile(configPath, data, 0o644)
}

// EnsureDirs creates all required directories.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.DataDir, c.CommonDir, c.InstanceDir, c.AssetsDir, c.LibrariesDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getDefaultDataDir() string {
	// Check for portable mode first.
	exe, _ := os.Executable()
	portablePath := filepath.Join(filepath.Dir(exe), "data")
	if _, err := os.Stat(portablePath); err == nil {
		return portablePath
	}

	// Use XDG/platform-specific directories.
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "launchercore")
	}

	home, _ := os.UserHomeDir()
	switch {
	case os.Getenv("APPDATA") != "": // Windows
		return filepath.Join(os.Getenv("APPDATA"), "launchercore")
	default: // Linux/macOS
		return filepath.Join(home, ".local", "share", "launchercore")
	}
}
