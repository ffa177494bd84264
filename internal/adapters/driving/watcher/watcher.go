// Package watcher ingests files from a directory tree and keeps ingesting
// them as they are created or modified.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned when the watcher has been closed.
var ErrClosed = errors.New("watcher: closed")

// Event reports the outcome of ingesting one file.
type Event struct {
	Path  string
	DocID string
	Err   error
}

// Watcher feeds files under a root directory to the knowledge service.
// The store is append-only, so a modified file is ingested as a new
// document and removed files are ignored.
type Watcher struct {
	root      string
	knowledge driving.KnowledgeService
	debounce  time.Duration
	metadata  map[string]any

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMetadata attaches metadata to every document the watcher ingests.
func WithMetadata(metadata map[string]any) Option {
	return func(w *Watcher) {
		w.metadata = metadata
	}
}

// New creates a watcher for root.
func New(root string, knowledge driving.KnowledgeService, opts ...Option) *Watcher {
	w := &Watcher{
		root:      root,
		knowledge: knowledge,
		debounce:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IngestExisting ingests every visible file under the root in lexical
// order. Failures do not stop the walk; they are joined into the returned
// error.
func (w *Watcher) IngestExisting(ctx context.Context) ([]Event, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var events []Event
	var errs []error
	walkErr := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		event := w.ingest(ctx, path)
		if event.Err != nil {
			errs = append(errs, event.Err)
		}
		events = append(events, event)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	return events, errors.Join(errs...)
}

// Watch starts watching the root and its subdirectories. Each created or
// written file is ingested once it has been quiet for the debounce period.
// The returned channel is closed when ctx is cancelled or the watcher is
// closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	events := make(chan Event)
	go w.loop(ctx, fsw, events)
	logger.Info("Watching %s", w.root)
	return events, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)
	defer fsw.Close()

	ready := make(chan string)
	done := make(chan struct{})
	defer close(done)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			path, ok := w.handleFsEvent(fsw, event)
			if !ok {
				continue
			}
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				deliver(ready, done, path)
			})

		case path := <-ready:
			delete(timers, path)
			select {
			case out <- w.ingest(ctx, path):
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// deliver hands a quiet path to the loop. It gives up once the loop has
// exited, so a timer that fires during shutdown never blocks.
func deliver(ready chan<- string, done <-chan struct{}, path string) bool {
	select {
	case ready <- path:
		return true
	case <-done:
		return false
	}
}

// handleFsEvent returns the file to ingest for an event. New directories
// are added to the watch list instead.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	if isHidden(filepath.Base(event.Name)) {
		return "", false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		logger.Debug("Ignoring %s on %s", event.Op, event.Name)
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && fsw != nil {
			if err := addTree(fsw, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) ingest(ctx context.Context, path string) Event {
	docID, err := w.knowledge.AddDocument(ctx, domain.AddDocumentRequest{
		Content:  domain.RawContent{Path: path, Name: filepath.Base(path)},
		Source:   path,
		Metadata: w.metadata,
	})
	if err != nil {
		logger.Warn("Ingest %s failed: %v", path, err)
		return Event{Path: path, Err: fmt.Errorf("ingest %s: %w", path, err)}
	}
	logger.Info("Ingested %s as %s", path, docID)
	return Event{Path: path, DocID: docID}
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watcher: root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watcher: root path error: %s is not a directory", w.root)
	}
	return nil
}

// addTree watches dir and every visible subdirectory.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watcher: watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether a file or directory name starts with a dot.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
