package store

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("CURRICULUM_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{CurrentCourse: "seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 32
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.CurrentCourse = fmt.Sprintf("course-%d", i)
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig after concurrent writes: %v", err)
	}
	if cfg.CurrentCourse == "" {
		t.Fatalf("expected a current course to survive")
	}
}

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("CURRICULUM_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CurrentCourse != "" || cfg.ServerURL != "" {
		t.Fatalf("expected empty config; got %#v", cfg)
	}
	if got := cfg.WriteTimeoutDuration(); got != DefaultWriteTimeout {
		t.Fatalf("expected default write timeout; got %s", got)
	}
}

func TestWriteTimeoutDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      DefaultWriteTimeout,
		"bogus": DefaultWriteTimeout,
		"-1s":   DefaultWriteTimeout,
		"250ms": 250 * time.Millisecond,
		" 3s ":  3 * time.Second,
	}
	for in, want := range cases {
		if got := (&GlobalConfig{WriteTimeout: in}).WriteTimeoutDuration(); got != want {
			t.Fatalf("WriteTimeout %q: want %s got %s", in, want, got)
		}
	}
}
