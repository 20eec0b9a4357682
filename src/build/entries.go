package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CoreApp is always built regardless of the page filter.
const CoreApp = "core"

// DiscoverEntries finds the page scripts under sourceDir, one per
// <app>/<page>.js, keyed "app/page".
func DiscoverEntries(sourceDir string) (map[string]string, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, fmt.Errorf("discover entries: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(sourceDir, "*", "*.js"))
	if err != nil {
		return nil, fmt.Errorf("discover entries in %s: %w", sourceDir, err)
	}

	entries := make(map[string]string, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(sourceDir, match)
		if err != nil {
			return nil, fmt.Errorf("discover entries: %w", err)
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".js")
		entries[name] = match
	}
	return entries, nil
}

// FilterEntries keeps the entries the page map selects. Single segment
// entries and core entries are always kept.
func FilterEntries(entries map[string]string, pages ApplicationPageMap) map[string]string {
	if len(pages) == 0 {
		return entries
	}

	filtered := make(map[string]string)
	for name, path := range entries {
		parts := strings.Split(name, "/")
		if len(parts) == 1 || parts[0] == CoreApp {
			filtered[name] = path
			continue
		}
		app := parts[0]
		page := strings.TrimSuffix(parts[1], ".bundle.js")
		if pages.Includes(app, page) {
			filtered[name] = path
		}
	}
	return filtered
}
