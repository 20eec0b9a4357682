package build

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// BuildPath is where bundles live below the static url.
const BuildPath = "frontend/build/"

// SharedBundles load before every page bundle, in this order.
var SharedBundles = []string{"vendor", "common", BootstrapEntry}

// ScriptPaths lists the script urls a page needs: the shared bundles, the
// page's own bundle when it has one, then any external scripts.
func ScriptPaths(staticURL, frontEndPath string, external ...string) []string {
	bundles := append([]string{}, SharedBundles...)
	if frontEndPath != "" {
		bundles = append(bundles, frontEndPath)
	}

	paths := make([]string, 0, len(bundles)+len(external))
	for _, bundle := range bundles {
		paths = append(paths, staticURL+BuildPath+bundle+".bundle.js")
	}
	return append(paths, external...)
}

// StylePaths lists the stylesheet urls a page needs.
func StylePaths(staticURL, frontEndPath string) []string {
	return []string{
		staticURL + BuildPath + "core.css",
		staticURL + BuildPath + frontEndPath + ".css",
		staticURL + BuildPath + "bootstrap.css",
		staticURL + BuildPath + "bootstrap-theme.min.css",
	}
}

// BundleScripts renders the <script> tags for a page.
func BundleScripts(staticURL, frontEndPath string, external ...string) templ.Component {
	tags := make([]string, 0)
	for _, src := range ScriptPaths(staticURL, frontEndPath, external...) {
		tags = append(tags, `<script src="`+templ.EscapeString(src)+`"></script>`)
	}
	return rawLines(tags)
}

// BundleStyles renders the stylesheet <link> tags for a page.
func BundleStyles(staticURL, frontEndPath string) templ.Component {
	tags := make([]string, 0)
	for _, href := range StylePaths(staticURL, frontEndPath) {
		tags = append(tags, `<link rel="stylesheet" href="`+templ.EscapeString(href)+`" />`)
	}
	return rawLines(tags)
}

func rawLines(lines []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(lines, "\n"))
		return err
	})
}
