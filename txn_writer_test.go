package smart

import (
	"strings"
	"testing"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/test"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

func TestSafeWriterUpdate(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("etc/smart.toml", sampleConfig)
	sw := &SafeWriter{Path: h.Path("etc/smart.toml")}

	h.Must(sw.Update(func(cfg *Config) error {
		return cfg.SetFlag(gps.FlagLock, "bash")
	}))

	cfg, err := LoadConfig(sw.Path)
	h.Must(err)
	if got := cfg.Flags[gps.FlagLock]; len(got) != 3 || got[2] != "bash" {
		t.Errorf("lock targets = %v", got)
	}
	if len(cfg.Channels) != 2 {
		t.Errorf("channels were lost: %+v", cfg.Channels)
	}
}

func TestSafeWriterCreates(t *testing.T) {
	h := test.NewHelper(t)
	sw := &SafeWriter{Path: h.Path("new/smart.toml")}

	h.Must(sw.Update(func(cfg *Config) error {
		return cfg.SetFlag(gps.FlagMultiVersion, "kernel")
	}))
	if got := h.ReadFile("new/smart.toml"); !strings.Contains(got, "kernel") {
		t.Errorf("unexpected config:\n%s", got)
	}
}

func TestSafeWriterAbort(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("smart.toml", sampleConfig)
	sw := &SafeWriter{Path: h.Path("smart.toml")}

	err := sw.Update(func(cfg *Config) error {
		cfg.Flags = nil
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("expected the update error")
	}
	if h.ReadFile("smart.toml") != sampleConfig {
		t.Error("a failed update should leave the file untouched")
	}
}

func TestSafeWriterLocked(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("smart.toml", sampleConfig)
	sw := &SafeWriter{Path: h.Path("smart.toml")}

	other := flock.New(sw.Path + ".lock")
	locked, err := other.TryLock()
	h.Must(err)
	if !locked {
		t.Fatal("could not take the lock")
	}
	defer other.Unlock()

	called := false
	err = sw.Update(func(*Config) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Error("update should refuse to run while the config is locked")
	}
}
