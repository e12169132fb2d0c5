// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package smart assembles the package engine for command line use: it reads
// the configuration file, turns configured channels into loaders, and builds
// caches and transactions over them.
package smart
