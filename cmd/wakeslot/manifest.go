package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultDemoMessages  uint64 = 32
	defaultDemoCapacity  uint64 = 4
	defaultStressWorkers uint64 = 8
	defaultStressOps     uint64 = 5000
)

type manifest struct {
	Path   string
	Root   string
	Config manifestConfig
}

type manifestConfig struct {
	Demo   demoConfig   `toml:"demo"`
	Stress stressConfig `toml:"stress"`
}

type demoConfig struct {
	Messages uint64 `toml:"messages"`
	Capacity uint64 `toml:"capacity"`
}

type stressConfig struct {
	Workers uint64 `toml:"workers"`
	Ops     uint64 `toml:"ops"`
}

// findWakeslotToml walks upward from startDir looking for a
// wakeslot.toml.
func findWakeslotToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "wakeslot.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadManifest loads the nearest wakeslot.toml above startDir. All
// sections are optional; missing values fall back to built-in
// defaults at the call site.
func loadManifest(startDir string) (*manifest, bool, error) {
	path, ok, err := findWakeslotToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadManifestConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func loadManifestConfig(path string) (manifestConfig, error) {
	var cfg manifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return manifestConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		return manifestConfig{}, fmt.Errorf("%s: unknown key %q", path, key.String())
	}
	return cfg, nil
}
