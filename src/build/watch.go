package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"holonet.gg/v1/encounter-builder/src/debounce"
)

// Rebuild is one batch of work the watcher hands to the bundler.
type Rebuild struct {
	Apps    []string
	Styles  []string
	Entries map[string]string
	Changed []string
}

// Watcher watches the script and style trees and emits a Rebuild scoped
// to the applications whose files changed.
type Watcher struct {
	opts    Options
	pages   ApplicationPageMap
	fs      *fsnotify.Watcher
	logger  *zap.Logger
	onBuild func(Rebuild)
	delay   *debounce.Debouncer

	mu      sync.Mutex
	changed map[string]bool
}

// NewWatcher starts watching the application directories under the
// source and style trees. Changes settle for wait before a rebuild fires.
func NewWatcher(opts Options, wait time.Duration, logger *zap.Logger, onBuild func(Rebuild)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		pages:   GetPagesFromArguments(opts.Pages),
		fs:      fsw,
		logger:  logger,
		onBuild: onBuild,
		delay:   debounce.New(wait),
		changed: make(map[string]bool),
	}
	for _, root := range []string{opts.SourceDir, opts.StyleDir} {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches root and every directory directly below it.
func (w *Watcher) addTree(root string) error {
	if root == "" {
		return nil
	}
	if err := w.fs.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		path := filepath.Join(root, dir.Name())
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	return nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching",
		zap.String("source", w.opts.SourceDir),
		zap.String("style", w.opts.StyleDir),
		zap.Strings("apps", w.pages.Apps()))

	for {
		select {
		case <-ctx.Done():
			w.delay.Stop()
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	w.delay.Stop()
	return w.fs.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fs.Add(event.Name); err != nil {
				w.logger.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	ext := filepath.Ext(event.Name)
	if ext != ".js" && ext != ".styl" && ext != ".css" {
		return
	}

	w.mu.Lock()
	w.changed[event.Name] = true
	w.mu.Unlock()
	w.delay.Trigger(w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.changed))
	for path := range w.changed {
		changed = append(changed, path)
	}
	w.changed = make(map[string]bool)
	w.mu.Unlock()
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	rebuild := w.plan(changed)
	w.logger.Info("rebuilding",
		zap.Strings("apps", rebuild.Apps),
		zap.Strings("styles", rebuild.Styles),
		zap.Int("entries", len(rebuild.Entries)),
		zap.Strings("changed", changed))

	if w.onBuild != nil {
		w.onBuild(rebuild)
	}
	if w.opts.Notifications {
		w.logger.Info("build complete", zap.String("title", "Encounters Build"), zap.Time("at", time.Now()))
	}
}

// plan scopes the rebuild to the mapped applications plus the ones the
// changed files belong to.
func (w *Watcher) plan(changed []string) Rebuild {
	rebuild := Rebuild{Entries: map[string]string{}, Changed: changed}
	pages := make(ApplicationPageMap, len(w.pages))
	for app, list := range w.pages {
		pages[app] = list
	}

	var styleChanges, scriptChanges []string
	for _, path := range changed {
		if filepath.Ext(path) == ".js" {
			scriptChanges = append(scriptChanges, path)
		} else {
			styleChanges = append(styleChanges, path)
		}
	}

	for _, path := range styleChanges {
		if app := StyleApp(w.opts.StyleDir, path); app != "" {
			if _, ok := pages[app]; !ok {
				pages[app] = []string{}
			}
		}
	}
	if len(styleChanges) > 0 {
		rebuild.Apps, rebuild.Styles = StyleSources(w.opts.StyleDir, pages, "")
	}

	if len(scriptChanges) > 0 {
		entries, err := DiscoverEntries(w.opts.SourceDir)
		if err != nil {
			w.logger.Warn("discover entries", zap.Error(err))
			return rebuild
		}
		scripts := make(ApplicationPageMap)
		for _, path := range scriptChanges {
			if app := scriptApp(w.opts.SourceDir, path); app != "" {
				scripts[app] = pages[app]
				if !slices.Contains(rebuild.Apps, app) {
					rebuild.Apps = append(rebuild.Apps, app)
				}
			}
		}
		if len(scripts) == 0 {
			scripts = pages
		}
		rebuild.Entries = FilterEntries(entries, scripts)
	}
	sort.Strings(rebuild.Apps)
	return rebuild
}

func scriptApp(sourceDir, path string) string {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return ""
	}
	app, _, nested := strings.Cut(filepath.ToSlash(rel), "/")
	if !nested || strings.HasPrefix(app, "..") {
		return ""
	}
	return app
}
