// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"sort"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/pkgdb"
	"github.com/endianspa/smart/internal/loaders/rpmmd"
	"github.com/endianspa/smart/internal/loaders/yamlindex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Channel types.
const (
	ChannelRPMMD     = "rpm-md"
	ChannelYAMLIndex = "yaml-index"
	ChannelPkgDB     = "pkgdb"
)

type loaderFactory func(Channel, *logrus.Logger) gps.Loader

var loaderFactories = map[string]loaderFactory{
	ChannelRPMMD: func(c Channel, l *logrus.Logger) gps.Loader {
		return rpmmd.New(rpmmd.Config{
			Name:    c.Alias,
			Path:    c.Path,
			BaseURL: c.BaseURL,
			Arches:  c.Arches,
		}, l)
	},
	ChannelYAMLIndex: func(c Channel, l *logrus.Logger) gps.Loader {
		return yamlindex.New(yamlindex.Config{
			Name:      c.Alias,
			Path:      c.Path,
			Installed: c.Installed,
		}, l)
	},
	ChannelPkgDB: func(c Channel, l *logrus.Logger) gps.Loader {
		return pkgdb.New(pkgdb.Config{Name: c.Alias, Path: c.Path}, l)
	},
}

// ChannelTypes returns the supported channel types, sorted.
func ChannelTypes() []string {
	types := make([]string, 0, len(loaderFactories))
	for t := range loaderFactories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Loader builds the loader for c.
func (c Channel) Loader(l *logrus.Logger) (gps.Loader, error) {
	f, ok := loaderFactories[c.Type]
	if !ok {
		return nil, errors.Errorf("channel %q has unknown type %q", c.Alias, c.Type)
	}
	return f(c, l), nil
}
