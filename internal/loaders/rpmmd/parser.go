// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpmmd

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/endianspa/smart/internal/gps"
)

// XML namespaces of repodata primary files.
const (
	NSCommon = "http://linux.duke.edu/metadata/common"
	NSRPM    = "http://linux.duke.edu/metadata/rpm"
)

// handler reacts to an element opening or closing. Either func may be nil.
type handler struct {
	open  func(p *parser, attrs map[string]string)
	close func(p *parser, attrs map[string]string, text string)
}

// handlers is the element dispatch table.
var handlers = map[xml.Name]handler{
	{Space: NSCommon, Local: "package"}:     {open: (*parser).openPackage, close: (*parser).closePackage},
	{Space: NSCommon, Local: "name"}:        {close: (*parser).closeName},
	{Space: NSCommon, Local: "arch"}:        {close: (*parser).closeArch},
	{Space: NSCommon, Local: "version"}:     {close: (*parser).closeVersion},
	{Space: NSCommon, Local: "summary"}:     {close: (*parser).closeSummary},
	{Space: NSCommon, Local: "description"}: {close: (*parser).closeDescription},
	{Space: NSCommon, Local: "size"}:        {close: (*parser).closeSize},
	{Space: NSCommon, Local: "location"}:    {close: (*parser).closeLocation},
	{Space: NSCommon, Local: "checksum"}:    {close: (*parser).closeChecksum},
	{Space: NSCommon, Local: "group"}:       {close: (*parser).closeGroup},
	{Space: NSRPM, Local: "group"}:          {close: (*parser).closeGroup},
	{Space: NSCommon, Local: "file"}:        {close: (*parser).closeFile},
	{Space: NSRPM, Local: "entry"}:          {close: (*parser).closeEntry},
}

var relationParents = map[xml.Name]gps.RelKind{
	{Space: NSRPM, Local: "provides"}:  gps.Provides,
	{Space: NSRPM, Local: "requires"}:  gps.Requires,
	{Space: NSRPM, Local: "conflicts"}: gps.Conflicts,
	{Space: NSRPM, Local: "obsoletes"}: gps.Obsoletes,
}

var flagOps = map[string]gps.Op{
	"EQ": gps.OpEQ,
	"LT": gps.OpLT,
	"LE": gps.OpLE,
	"GT": gps.OpGT,
	"GE": gps.OpGE,
}

type frame struct {
	name  xml.Name
	attrs map[string]string
}

// pkgData accumulates one <package> element.
type pkgData struct {
	name, evr, arch string
	provides        []gps.Relation
	requires        []gps.Relation
	upgrades        []gps.Relation
	conflicts       []gps.Relation
	files           []string
	info            gps.PackageInfo
}

// parser is the element state machine behind the loader. It is driven by
// onOpen, onClose and onText, and hands each finished package to emit.
type parser struct {
	baseURL string
	// accept reports whether packages of an architecture are wanted.
	accept func(arch string) bool
	emit   func(*pkgData)

	stack []frame
	// skipDepth is the stack depth of the element being skipped, or zero.
	skipDepth int
	// pkgDepth is the stack depth of the open <package>, or zero.
	pkgDepth int
	text     strings.Builder
	cur      *pkgData

	skipped int
}

func (p *parser) onOpen(name xml.Name, attrs map[string]string) {
	p.text.Reset()
	p.stack = append(p.stack, frame{name: name, attrs: attrs})
	if p.skipDepth > 0 {
		return
	}
	if h, ok := handlers[name]; ok && h.open != nil {
		h.open(p, attrs)
	}
}

func (p *parser) onClose(name xml.Name) {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	text := p.text.String()
	p.text.Reset()

	if p.skipDepth > 0 {
		if len(p.stack) < p.skipDepth {
			p.skipDepth = 0
			if p.pkgDepth > len(p.stack) {
				p.pkgDepth = 0
				p.cur = nil
				p.skipped++
			}
		}
		return
	}
	if h, ok := handlers[top.name]; ok && h.close != nil {
		h.close(p, top.attrs, text)
	}
}

func (p *parser) onText(data []byte) {
	p.text.Write(data)
}

// skip ignores everything up to the end of the element at depth.
func (p *parser) skip(depth int) {
	p.skipDepth = depth
}

// parent returns the name of the element enclosing the one just closed.
func (p *parser) parent() xml.Name {
	if len(p.stack) == 0 {
		return xml.Name{}
	}
	return p.stack[len(p.stack)-1].name
}

func (p *parser) openPackage(attrs map[string]string) {
	p.pkgDepth = len(p.stack)
	if attrs["type"] != "rpm" {
		p.skip(p.pkgDepth)
		return
	}
	p.cur = &pkgData{info: gps.PackageInfo{Checksums: make(map[string]string)}}
}

func (p *parser) closePackage(attrs map[string]string, text string) {
	d := p.cur
	p.cur, p.pkgDepth = nil, 0
	if d == nil || d.name == "" {
		return
	}
	p.emit(d)
}

func (p *parser) closeName(attrs map[string]string, text string) {
	if p.cur != nil && p.parent().Local == "package" {
		p.cur.name = strings.TrimSpace(text)
	}
}

func (p *parser) closeArch(attrs map[string]string, text string) {
	if p.cur == nil {
		return
	}
	arch := strings.TrimSpace(text)
	if !p.accept(arch) {
		p.skip(p.pkgDepth)
		return
	}
	p.cur.arch = arch
}

func (p *parser) closeVersion(attrs map[string]string, text string) {
	if p.cur != nil {
		p.cur.evr = evrString(attrs["epoch"], attrs["ver"], attrs["rel"])
	}
}

func (p *parser) closeSummary(attrs map[string]string, text string) {
	if p.cur != nil {
		p.cur.info.Summary = strings.TrimSpace(text)
	}
}

func (p *parser) closeDescription(attrs map[string]string, text string) {
	if p.cur != nil {
		p.cur.info.Description = strings.TrimSpace(text)
	}
}

func (p *parser) closeSize(attrs map[string]string, text string) {
	if p.cur == nil {
		return
	}
	p.cur.info.Size, _ = strconv.ParseInt(attrs["package"], 10, 64)
	p.cur.info.InstalledSize, _ = strconv.ParseInt(attrs["installed"], 10, 64)
}

func (p *parser) closeLocation(attrs map[string]string, text string) {
	if p.cur == nil {
		return
	}
	href := attrs["href"]
	if p.baseURL == "" {
		p.cur.info.URL = href
		return
	}
	p.cur.info.URL = strings.TrimSuffix(p.baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
}

func (p *parser) closeChecksum(attrs map[string]string, text string) {
	if p.cur != nil && attrs["type"] != "" {
		p.cur.info.Checksums[attrs["type"]] = strings.TrimSpace(text)
	}
}

func (p *parser) closeGroup(attrs map[string]string, text string) {
	if p.cur != nil {
		p.cur.info.Group = strings.TrimSpace(text)
	}
}

func (p *parser) closeFile(attrs map[string]string, text string) {
	if p.cur == nil {
		return
	}
	if f := strings.TrimSpace(text); strings.HasPrefix(f, "/") {
		p.cur.files = append(p.cur.files, f)
	}
}

func (p *parser) closeEntry(attrs map[string]string, text string) {
	if p.cur == nil {
		return
	}
	kind, ok := relationParents[p.parent()]
	if !ok {
		return
	}
	name := attrs["name"]
	if name == "" || strings.HasPrefix(name, "rpmlib(") || strings.HasPrefix(name, "config(") {
		return
	}

	var version string
	op := gps.OpNone
	if ver, has := attrs["ver"]; has {
		version = evrString(attrs["epoch"], ver, attrs["rel"])
		op = flagOps[attrs["flags"]]
	}

	d := p.cur
	switch kind {
	case gps.Provides:
		if strings.HasPrefix(name, "/") {
			d.files = append(d.files, name)
			return
		}
		d.provides = append(d.provides, gps.Relation{Kind: gps.Provides, Name: name, Version: version})
	case gps.Requires:
		if op == gps.OpNone {
			version = ""
		}
		d.requires = append(d.requires, gps.Relation{Kind: gps.Requires, Name: name, Op: op, Version: version})
	case gps.Obsoletes:
		if op == gps.OpNone {
			version = ""
		}
		d.upgrades = append(d.upgrades, gps.Relation{Kind: gps.Upgrades, Name: name, Op: op, Version: version})
		d.conflicts = append(d.conflicts, gps.Relation{Kind: gps.Obsoletes, Name: name, Op: op, Version: version})
	case gps.Conflicts:
		if op == gps.OpNone {
			version = ""
		}
		d.conflicts = append(d.conflicts, gps.Relation{Kind: gps.Conflicts, Name: name, Op: op, Version: version})
	}
}

// evrString formats an epoch:version-release string. A zero epoch is
// omitted.
func evrString(epoch, ver, rel string) string {
	v := ver
	if epoch != "" && epoch != "0" {
		v = epoch + ":" + v
	}
	if rel != "" {
		v += "-" + rel
	}
	return v
}
