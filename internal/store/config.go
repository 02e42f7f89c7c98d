package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultWriteTimeout = 10 * time.Second

type GlobalConfig struct {
	// CurrentCourse is used when no --course flag or CURRICULUM_COURSE is given.
	CurrentCourse string `json:"currentCourse,omitempty"`

	// ServerURL points the CLI and editor at a running `curriculum serve`.
	// Empty means the local store directory is used directly.
	ServerURL string `json:"serverUrl,omitempty"`

	// WriteTimeout bounds each reorder write, as a Go duration ("10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// WriteTimeoutDuration parses WriteTimeout, falling back to DefaultWriteTimeout.
func (c *GlobalConfig) WriteTimeoutDuration() time.Duration {
	if c == nil {
		return DefaultWriteTimeout
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.WriteTimeout))
	if err != nil || d <= 0 {
		return DefaultWriteTimeout
	}
	return d
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.curriculum).
	if v := strings.TrimSpace(os.Getenv("CURRICULUM_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename: the CLI, editor and server may write concurrently.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
