// Package watch loads qrel files from a directory and keeps a qrel
// registry in sync as files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/terrierteam/treceval/internal/pkg/logger"
	"github.com/terrierteam/treceval/internal/pkg/security"
	"github.com/terrierteam/treceval/trec"
)

// Registry receives qrel sets as files appear, change or disappear.
type Registry interface {
	SetQrels(name string, qrels trec.Qrel)
	RemoveQrels(name string)
}

// debounceDelay coalesces rapid write events for the same file, e.g.
// while an editor or copy is still flushing.
const debounceDelay = 200 * time.Millisecond

// Watcher mirrors the qrel files of one directory into a Registry.
// The file base name, minus extension, becomes the qrel set name.
type Watcher struct {
	dir      string
	registry Registry
	log      *logger.Logger

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for the given directory.
func New(dir string, registry Registry, log *logger.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("qrels directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("qrels path %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		registry: registry,
		log:      log,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Close releases the underlying file watcher. Not needed if Start was
// called; the event loop closes it on context cancellation.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// LoadAll parses every qrel file currently in the directory into the
// registry. Files that fail to parse are logged and skipped.
func (w *Watcher) LoadAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading qrels directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.loadFile(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// Start processes file events until the context is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer w.fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.WithError(err).Warn("Watcher error")
			}
		}
	}()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := qrelName(event.Name)
	if name == "" {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.registry.RemoveQrels(name)
		w.log.WithQrels(name).Info("Qrels removed", "file", event.Name)

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		// Debounce: reset the timer for this path on every event.
		w.mu.Lock()
		if timer, ok := w.timers[event.Name]; ok {
			timer.Stop()
		}
		path := event.Name
		w.timers[path] = time.AfterFunc(debounceDelay, func() {
			w.mu.Lock()
			delete(w.timers, path)
			w.mu.Unlock()
			w.loadFile(path)
		})
		w.mu.Unlock()
	}
}

// loadFile parses one qrel file into the registry.
func (w *Watcher) loadFile(path string) {
	name := qrelName(path)
	if name == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		w.log.WithQrels(name).WithError(err).Warn("Failed to open qrel file")
		return
	}
	qrels, err := trec.ParseQrel(file)
	file.Close()
	if err != nil {
		w.log.WithQrels(name).WithError(err).Warn("Failed to parse qrel file", "file", path)
		return
	}

	w.registry.SetQrels(name, qrels)
	w.log.WithQrels(name).Info("Qrels loaded from file",
		"file", path,
		"queries", len(qrels),
		"judgments", qrels.Judgments(),
	)
}

// qrelName derives the registry name from a file path: the base name
// without extension. Hidden files and names that fail validation are
// skipped (returns "").
func qrelName(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return ""
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if security.ValidateName("qrel name", name) != nil {
		return ""
	}
	return name
}
