// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"io"
	"log"

	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Ctx defines the supporting context of the tool.
type Ctx struct {
	Out, Err   *log.Logger    // Required loggers.
	Logger     *logrus.Logger // Structured log output.
	Verbose    bool           // Enables more verbose logging.
	Trace      bool           // Traces resolution steps on Err.
	ConfigPath string         // Path of the configuration file.
	Config     *Config

	// Registry collects the engine metrics of this run.
	Registry *prometheus.Registry
	metrics  *gps.Metrics
}

// NewContext reads the configuration at configPath and prepares a context
// writing to stdout and stderr.
func NewContext(configPath string, stdout, stderr io.Writer, verbose bool) (*Ctx, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.Out = stderr
	l.Level = cfg.LogLevel
	if verbose {
		l.Level = logrus.DebugLevel
	}

	reg := prometheus.NewRegistry()
	return &Ctx{
		Out:        log.New(stdout, "", 0),
		Err:        log.New(stderr, "", 0),
		Logger:     l,
		Verbose:    verbose,
		ConfigPath: configPath,
		Config:     cfg,
		Registry:   reg,
		metrics:    gps.NewMetrics(reg),
	}, nil
}

// LoadCache loads every configured channel into a new cache and resolves the
// file provides its requirements name.
func (c *Ctx) LoadCache() (*gps.Cache, error) {
	cache := gps.NewCache(c.Logger)
	cache.SetMetrics(c.metrics)
	cache.SetProgress(&logProgress{l: c.Logger})
	for _, ch := range c.Config.Channels {
		ld, err := ch.Loader(c.Logger)
		if err != nil {
			return nil, err
		}
		cache.AddLoader(ld)
	}
	if err := cache.Load(); err != nil {
		return nil, err
	}
	cache.ResolveFileProvides(cache.RequiredFiles())
	return cache, nil
}

// NewTransaction returns a transaction over cache using the configured
// package flags.
func (c *Ctx) NewTransaction(cache *gps.Cache, policy gps.Policy) (*gps.Transaction, error) {
	flags, err := c.Config.PackageFlags()
	if err != nil {
		return nil, err
	}
	return gps.NewTransaction(gps.TransactionParams{
		Cache:       cache,
		Flags:       flags,
		Policy:      policy,
		Logger:      c.Logger,
		Trace:       c.Trace,
		TraceLogger: c.Err,
		Metrics:     c.metrics,
	})
}

// WriteMetrics writes the collected metrics to path in the text exposition
// format.
func (c *Ctx) WriteMetrics(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, c.Registry), "writing metrics to %s", path)
}

// logProgress reports cache loads on the debug log.
type logProgress struct {
	l     *logrus.Logger
	total int
	n     int
}

func (p *logProgress) Start(total int) {
	p.total, p.n = total, 0
	if p.l.Level >= logrus.DebugLevel {
		p.l.WithField("estimate", total).Debug("loading channels")
	}
}

func (p *logProgress) Step() {
	p.n++
	if p.total > 0 && p.n == p.total && p.l.Level >= logrus.DebugLevel {
		p.l.WithField("steps", p.n).Debug("channels loaded")
	}
}
