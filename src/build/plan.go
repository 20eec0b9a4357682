package build

import (
	"fmt"
	"path/filepath"
	"sort"

	"holonet.gg/v1/encounter-builder/src/object"
	"holonet.gg/v1/encounter-builder/src/table"
)

type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// ParseMode accepts "development" or "production"; anything else but the
// empty string is an error. Empty means production.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Development:
		return Development, nil
	case Production, "":
		return Production, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, Development, Production)
}

// Options are the inputs of a build invocation.
type Options struct {
	SourceDir     string
	StyleDir      string
	BuildDir      string
	PublicPath    string
	Mode          Mode
	Pages         []string
	Notifications bool
}

// Plan is what the bundler is asked to produce for one invocation.
type Plan struct {
	Mode          Mode
	Pages         ApplicationPageMap
	Entries       map[string]string
	Styles        []string
	OutputDir     string
	PublicPath    string
	Minimize      bool
	SourceMaps    bool
	SplitChunks   bool
	Notifications bool
}

// BootstrapEntry is the shared entry every page loads first.
const BootstrapEntry = "bootstrap"

// NewPlan discovers the page scripts and narrows them to the requested
// pages. Common chunks are only split out when every page is built.
func NewPlan(opts Options) (*Plan, error) {
	pages := GetPagesFromArguments(opts.Pages)
	discovered, err := DiscoverEntries(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	entries := map[string]string{
		BootstrapEntry: filepath.Join(opts.SourceDir, BootstrapEntry+".js"),
	}
	for name, path := range FilterEntries(discovered, pages) {
		entries[name] = path
	}

	_, styles := StyleSources(opts.StyleDir, pages, "")
	if len(pages) == 0 {
		styles = []string{filepath.ToSlash(filepath.Join(opts.StyleDir, "*", "*.styl"))}
	}

	mode := opts.Mode
	if mode == "" {
		mode = Production
	}
	return &Plan{
		Mode:          mode,
		Pages:         pages,
		Entries:       entries,
		Styles:        styles,
		OutputDir:     opts.BuildDir,
		PublicPath:    opts.PublicPath,
		Minimize:      mode == Production,
		SourceMaps:    mode == Development,
		SplitChunks:   len(opts.Pages) == 0,
		Notifications: opts.Notifications,
	}, nil
}

// EntryNames returns the entry names sorted.
func (p *Plan) EntryNames() []string {
	names := make([]string, 0, len(p.Entries))
	for name := range p.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table lays the plan's entries out as rows of bundle, source and output.
func (p *Plan) Table() table.Table {
	records := make([]object.Mapping, 0, len(p.Entries))
	for _, name := range p.EntryNames() {
		records = append(records, object.Mapping{
			"bundle": name,
			"source": p.Entries[name],
			"output": filepath.ToSlash(filepath.Join(p.OutputDir, name+".bundle.js")),
		})
	}
	return table.Render(records, []table.Column{
		table.Field("bundle", "Bundle"),
		table.Field("source", "Source"),
		table.Field("output", "Output"),
	}, "bundle")
}
