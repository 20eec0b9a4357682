package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetPagesFromArguments(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   ApplicationPageMap
	}{
		{
			name:   "apps and pages",
			tokens: []string{"encounters__builder", "encounters__list", "core__"},
			want:   ApplicationPageMap{"encounters": {"builder", "list"}, "core": {}},
		},
		{
			name:   "duplicates keep first order",
			tokens: []string{"encounters__list", "encounters__builder", "encounters__list"},
			want:   ApplicationPageMap{"encounters": {"list", "builder"}},
		},
		{
			name:   "extra segments ignored",
			tokens: []string{"encounters__builder__extra", "core____base"},
			want:   ApplicationPageMap{"encounters": {"builder"}, "core": {}},
		},
		{
			name:   "app without delimiter",
			tokens: []string{"core"},
			want:   ApplicationPageMap{"core": {}},
		},
		{
			name:   "empty token skipped",
			tokens: []string{""},
			want:   ApplicationPageMap{},
		},
		{
			name:   "nil input",
			tokens: nil,
			want:   ApplicationPageMap{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := cmp.Diff(tt.want, GetPagesFromArguments(tt.tokens)); d != "" {
				t.Errorf("GetPagesFromArguments mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestIncludes(t *testing.T) {
	pages := GetPagesFromArguments([]string{"encounters__builder", "core"})
	assert.True(t, pages.Includes("encounters", "builder"))
	assert.False(t, pages.Includes("encounters", "list"))
	assert.True(t, pages.Includes("core", "anything"))
	assert.False(t, pages.Includes("admin", "index"))
	assert.True(t, ApplicationPageMap{}.Includes("admin", "index"))
	assert.Equal(t, []string{"core", "encounters"}, pages.Apps())
}

func TestFilterEntries(t *testing.T) {
	entries := map[string]string{
		"bootstrap":           "src/bootstrap.js",
		"core/base":           "src/core/base.js",
		"encounters/builder":  "src/encounters/builder.js",
		"encounters/list":     "src/encounters/list.js",
		"starships/catalogue": "src/starships/catalogue.js",
	}

	all := FilterEntries(entries, ApplicationPageMap{})
	assert.Equal(t, entries, all)

	filtered := FilterEntries(entries, GetPagesFromArguments([]string{"encounters__builder"}))
	assert.Equal(t, map[string]string{
		"bootstrap":          "src/bootstrap.js",
		"core/base":          "src/core/base.js",
		"encounters/builder": "src/encounters/builder.js",
	}, filtered)

	whole := FilterEntries(entries, GetPagesFromArguments([]string{"starships"}))
	assert.Contains(t, whole, "starships/catalogue")
	assert.NotContains(t, whole, "encounters/list")
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("//"), 0o644))
}

func sourceTree(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	style := filepath.Join(root, "style")
	for _, f := range []string{"bootstrap.js", "core/base.js", "encounters/builder.js", "encounters/list.js", "encounters/components/Table.js"} {
		writeFile(t, filepath.Join(src, f))
	}
	for _, f := range []string{"core/core.styl", "encounters/builder.styl", "encounters/list.styl"} {
		writeFile(t, filepath.Join(style, f))
	}
	return src, style
}

func TestDiscoverEntries(t *testing.T) {
	src, _ := sourceTree(t)

	entries, err := DiscoverEntries(src)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"core/base":          filepath.Join(src, "core", "base.js"),
		"encounters/builder": filepath.Join(src, "encounters", "builder.js"),
		"encounters/list":    filepath.Join(src, "encounters", "list.js"),
	}, entries)

	_, err = DiscoverEntries(filepath.Join(src, "missing"))
	assert.Error(t, err)
}

func TestStyleSources(t *testing.T) {
	pages := GetPagesFromArguments([]string{"encounters__builder"})

	apps, sources := StyleSources("style", pages, "/repo/style/core/core.styl")
	assert.Equal(t, []string{"encounters", "core"}, apps)
	assert.Equal(t, []string{"style/encounters/builder.styl", "style/core/*.styl"}, sources)

	apps, sources = StyleSources("style", pages, "/repo/style/encounters/list.styl")
	assert.Equal(t, []string{"encounters"}, apps)
	assert.Equal(t, []string{"style/encounters/builder.styl"}, sources)

	apps, _ = StyleSources("style", ApplicationPageMap{}, "")
	assert.Empty(t, apps)
}

func TestStyleApp(t *testing.T) {
	assert.Equal(t, "encounters", StyleApp("style", `C:/repo/style/encounters/mixins/buttons.styl`))
	assert.Equal(t, "", StyleApp("style", "/repo/style/root.styl"))
	assert.Equal(t, "", StyleApp("style", "/repo/other/encounters/x.styl"))
	assert.Equal(t, "", StyleApp("style", ""))
}

func TestNewPlan(t *testing.T) {
	src, style := sourceTree(t)

	plan, err := NewPlan(Options{
		SourceDir: src,
		StyleDir:  style,
		BuildDir:  "build",
		Mode:      Development,
		Pages:     []string{"encounters__builder"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bootstrap", "core/base", "encounters/builder"}, plan.EntryNames())
	assert.Equal(t, []string{filepath.ToSlash(filepath.Join(style, "encounters", "builder.styl"))}, plan.Styles)
	assert.True(t, plan.SourceMaps)
	assert.False(t, plan.Minimize)
	assert.False(t, plan.SplitChunks)

	rows := plan.Table().Strings()
	require.Len(t, rows, 3)
	assert.Equal(t, "encounters/builder", rows[2][0])
	assert.Equal(t, "build/encounters/builder.bundle.js", rows[2][2])
}

func TestNewPlanEverything(t *testing.T) {
	src, style := sourceTree(t)

	plan, err := NewPlan(Options{SourceDir: src, StyleDir: style})
	require.NoError(t, err)
	assert.Equal(t, Production, plan.Mode)
	assert.True(t, plan.Minimize)
	assert.True(t, plan.SplitChunks)
	assert.Len(t, plan.Entries, 4)
	assert.Equal(t, []string{filepath.ToSlash(filepath.Join(style, "*", "*.styl"))}, plan.Styles)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("development")
	require.NoError(t, err)
	assert.Equal(t, Development, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Production, mode)

	_, err = ParseMode("staging")
	assert.Error(t, err)
}

func TestBundleTags(t *testing.T) {
	var b strings.Builder
	require.NoError(t, BundleScripts("/static/", "encounters/builder").Render(context.Background(), &b))
	assert.Equal(t, strings.Join([]string{
		`<script src="/static/frontend/build/vendor.bundle.js"></script>`,
		`<script src="/static/frontend/build/common.bundle.js"></script>`,
		`<script src="/static/frontend/build/bootstrap.bundle.js"></script>`,
		`<script src="/static/frontend/build/encounters/builder.bundle.js"></script>`,
	}, "\n"), b.String())

	assert.Len(t, ScriptPaths("/static/", "", "https://cdn.example/x.js"), 4)

	b.Reset()
	require.NoError(t, BundleStyles("/static/", "encounters/builder").Render(context.Background(), &b))
	assert.Contains(t, b.String(), `<link rel="stylesheet" href="/static/frontend/build/encounters/builder.css" />`)
}

func TestWatcherRebuildsChangedApp(t *testing.T) {
	src, style := sourceTree(t)

	var mu sync.Mutex
	var rebuilds []Rebuild
	w, err := NewWatcher(Options{SourceDir: src, StyleDir: style}, 20*time.Millisecond, zap.NewNop(), func(r Rebuild) {
		mu.Lock()
		rebuilds = append(rebuilds, r)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(style, "encounters", "builder.styl"), []byte("body {}"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(rebuilds) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"encounters"}, rebuilds[0].Apps)
	assert.Equal(t, []string{filepath.ToSlash(filepath.Join(style, "encounters", "*.styl"))}, rebuilds[0].Styles)
}

func TestWatcherPlanScripts(t *testing.T) {
	src, style := sourceTree(t)
	w := &Watcher{opts: Options{SourceDir: src, StyleDir: style}, pages: ApplicationPageMap{}, logger: zap.NewNop()}

	rebuild := w.plan([]string{filepath.Join(src, "encounters", "list.js")})
	assert.Equal(t, []string{"encounters"}, rebuild.Apps)
	assert.Contains(t, rebuild.Entries, "encounters/list")
	assert.Contains(t, rebuild.Entries, "core/base")
	assert.Empty(t, rebuild.Styles)
}
