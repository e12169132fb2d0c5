// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/endianspa/smart/internal/gps"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultConfigPath is where the configuration is read from unless told
// otherwise.
const DefaultConfigPath = "/etc/smart/smart.toml"

// Config is the validated configuration file.
type Config struct {
	LogLevel logrus.Level
	Channels []Channel
	// Flags maps a flag name to its targets, in file order.
	Flags map[string][]string
}

// Channel is a configured package source.
type Channel struct {
	Alias   string
	Type    string
	Path    string
	BaseURL string
	Arches  []string
	// Installed marks every package of the channel as installed.
	Installed bool
}

type rawConfig struct {
	Log      rawLog              `toml:"log,omitempty"`
	Channels []rawChannel        `toml:"channel,omitempty"`
	Flags    map[string][]string `toml:"package-flags,omitempty"`
}

type rawLog struct {
	Level string `toml:"level,omitempty"`
}

type rawChannel struct {
	Alias     string   `toml:"alias"`
	Type      string   `toml:"type"`
	Path      string   `toml:"path"`
	BaseURL   string   `toml:"baseurl,omitempty"`
	Arches    []string `toml:"arches,omitempty"`
	Installed bool     `toml:"installed,omitempty"`
}

// NewConfig returns an empty configuration logging at warning level.
func NewConfig() *Config {
	return &Config{
		LogLevel: logrus.WarnLevel,
		Flags:    make(map[string][]string),
	}
}

// ReadConfig parses and validates a configuration file.
func ReadConfig(r io.Reader) (*Config, error) {
	buf := &bytes.Buffer{}
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read byte stream")
	}

	raw := rawConfig{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the config as TOML")
	}
	return fromRaw(raw)
}

// LoadConfig reads the configuration file at path. A missing file yields an
// empty configuration.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	cfg, err := ReadConfig(f)
	return cfg, errors.Wrapf(err, "reading %s", path)
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := NewConfig()
	if raw.Log.Level != "" {
		lvl, err := logrus.ParseLevel(raw.Log.Level)
		if err != nil {
			return nil, errors.Wrap(err, "invalid [log] level")
		}
		cfg.LogLevel = lvl
	}

	seen := make(map[string]bool, len(raw.Channels))
	for k, rc := range raw.Channels {
		switch {
		case rc.Alias == "":
			return nil, errors.Errorf("channel %d has no alias", k)
		case seen[rc.Alias]:
			return nil, errors.Errorf("channel %q is defined more than once", rc.Alias)
		case rc.Path == "":
			return nil, errors.Errorf("channel %q has no path", rc.Alias)
		}
		if _, ok := loaderFactories[rc.Type]; !ok {
			return nil, errors.Errorf("channel %q has unknown type %q", rc.Alias, rc.Type)
		}
		seen[rc.Alias] = true
		cfg.Channels = append(cfg.Channels, Channel{
			Alias:     rc.Alias,
			Type:      rc.Type,
			Path:      rc.Path,
			BaseURL:   rc.BaseURL,
			Arches:    rc.Arches,
			Installed: rc.Installed,
		})
	}

	for flag, targets := range raw.Flags {
		for _, target := range targets {
			if _, _, _, err := gps.ParseTarget(target); err != nil {
				return nil, errors.Wrapf(err, "flag %s", flag)
			}
		}
		if len(targets) > 0 {
			cfg.Flags[flag] = targets
		}
	}
	return cfg, nil
}

func (cfg *Config) toRaw() rawConfig {
	raw := rawConfig{}
	if cfg.LogLevel != logrus.WarnLevel {
		raw.Log.Level = cfg.LogLevel.String()
	}
	for _, c := range cfg.Channels {
		raw.Channels = append(raw.Channels, rawChannel{
			Alias:     c.Alias,
			Type:      c.Type,
			Path:      c.Path,
			BaseURL:   c.BaseURL,
			Arches:    c.Arches,
			Installed: c.Installed,
		})
	}
	if len(cfg.Flags) > 0 {
		raw.Flags = cfg.Flags
	}
	return raw
}

// MarshalTOML serializes the configuration via an intermediate raw form.
func (cfg *Config) MarshalTOML() ([]byte, error) {
	result, err := toml.Marshal(cfg.toRaw())
	return result, errors.Wrap(err, "unable to marshal config to TOML string")
}

// PackageFlags builds the flag set the configuration describes.
func (cfg *Config) PackageFlags() (*gps.PackageFlags, error) {
	f := gps.NewPackageFlags()
	for flag, targets := range cfg.Flags {
		for _, target := range targets {
			if err := f.SetTarget(flag, target); err != nil {
				return nil, errors.Wrapf(err, "flag %s", flag)
			}
		}
	}
	return f, nil
}

// SetFlag adds target to flag. Setting a target twice has no effect.
func (cfg *Config) SetFlag(flag, target string) error {
	if flag == "" {
		return errors.New("flag name is empty")
	}
	if _, _, _, err := gps.ParseTarget(target); err != nil {
		return err
	}
	for _, t := range cfg.Flags[flag] {
		if sameTarget(t, target) {
			return nil
		}
	}
	if cfg.Flags == nil {
		cfg.Flags = make(map[string][]string)
	}
	cfg.Flags[flag] = append(cfg.Flags[flag], target)
	return nil
}

// sameTarget reports whether two target strings name the same package and
// version restriction, regardless of spacing or "=" versus "==".
func sameTarget(a, b string) bool {
	an, aop, av, aerr := gps.ParseTarget(a)
	bn, bop, bv, berr := gps.ParseTarget(b)
	if aerr != nil || berr != nil {
		return a == b
	}
	return an == bn && aop == bop && av == bv
}

// RemoveFlag removes target from flag, or the whole flag if target is empty.
// Removing the last target removes the flag. It reports whether anything was
// removed.
func (cfg *Config) RemoveFlag(flag, target string) bool {
	targets, ok := cfg.Flags[flag]
	if !ok {
		return false
	}
	if target == "" {
		delete(cfg.Flags, flag)
		return true
	}

	kept := targets[:0:0]
	for _, t := range targets {
		if !sameTarget(t, target) {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(targets) {
		return false
	}
	if len(kept) == 0 {
		delete(cfg.Flags, flag)
	} else {
		cfg.Flags[flag] = kept
	}
	return true
}

// ShowFlags writes every flag with its targets, sorted. If names are given,
// only those flags are shown.
func (cfg *Config) ShowFlags(w io.Writer, names ...string) error {
	if len(names) == 0 {
		for flag := range cfg.Flags {
			names = append(names, flag)
		}
	}
	sort.Strings(names)

	for _, flag := range names {
		targets, ok := cfg.Flags[flag]
		if !ok {
			continue
		}
		targets = append([]string(nil), targets...)
		sort.Strings(targets)
		if _, err := fmt.Fprintln(w, flag); err != nil {
			return err
		}
		for _, t := range targets {
			if _, err := fmt.Fprintf(w, "    %s\n", t); err != nil {
				return err
			}
		}
	}
	return nil
}
