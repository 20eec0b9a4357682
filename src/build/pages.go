package build

import (
	"slices"
	"sort"
	"strings"
)

// PageDelimiter separates the application from the page in a page token.
const PageDelimiter = "__"

// ApplicationPageMap maps an application to the pages of it that should be
// built. An application with no pages means all of its pages; an empty map
// means every application.
type ApplicationPageMap map[string][]string

// GetPagesFromArguments turns "app__page" tokens into an ApplicationPageMap.
// A token without a page half registers the application with no pages.
// Duplicate pages are dropped, keeping first-seen order.
func GetPagesFromArguments(tokens []string) ApplicationPageMap {
	pages := make(ApplicationPageMap)
	for _, token := range tokens {
		app, page, _ := strings.Cut(token, PageDelimiter)
		page, _, _ = strings.Cut(page, PageDelimiter)
		if app == "" {
			continue
		}
		if _, ok := pages[app]; !ok {
			pages[app] = []string{}
		}
		if page != "" && !slices.Contains(pages[app], page) {
			pages[app] = append(pages[app], page)
		}
	}
	return pages
}

// Apps returns the mapped applications sorted.
func (m ApplicationPageMap) Apps() []string {
	apps := make([]string, 0, len(m))
	for app := range m {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Includes reports whether page of app is selected by the map.
func (m ApplicationPageMap) Includes(app, page string) bool {
	if len(m) == 0 {
		return true
	}
	pages, ok := m[app]
	if !ok {
		return false
	}
	return len(pages) == 0 || slices.Contains(pages, page)
}
