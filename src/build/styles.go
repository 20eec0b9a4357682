package build

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// StyleSources works out which stylesheets to recompile after changedPath
// (a file under styleDir) changed. The changed file's application is
// added to the mapped ones; each application then expands to its mapped
// pages, or to every top-level stylesheet when it has none mapped.
// changedPath may be empty to build only the mapped applications.
func StyleSources(styleDir string, pages ApplicationPageMap, changedPath string) (apps []string, sources []string) {
	apps = pages.Apps()
	if app := StyleApp(styleDir, changedPath); app != "" && !slices.Contains(apps, app) {
		apps = append(apps, app)
	}

	root := filepath.ToSlash(styleDir)
	for _, app := range apps {
		mapped := pages[app]
		if len(mapped) == 0 {
			sources = append(sources, path.Join(root, app, "*.styl"))
			continue
		}
		for _, page := range mapped {
			sources = append(sources, path.Join(root, app, page+".styl"))
		}
	}
	return apps, sources
}

// StyleApp returns the application a file under styleDir belongs to, or ""
// when the file is not inside an application directory.
func StyleApp(styleDir, changedPath string) string {
	if changedPath == "" {
		return ""
	}
	root := strings.TrimSuffix(filepath.ToSlash(styleDir), "/")
	changed := filepath.ToSlash(changedPath)
	_, rest, found := strings.Cut(changed, root+"/")
	if !found {
		return ""
	}
	app, _, nested := strings.Cut(rest, "/")
	if !nested {
		return ""
	}
	return app
}
