// Package watcher splits documents as they appear or change in a directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is split.
// Editors often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Result is the outcome of splitting one changed file.
type Result struct {
	Path      string
	OutputDir string
	Split     *driving.SplitResult
	Err       error
}

// Watcher splits convertible files in one directory into
// <outputRoot>/<stem>/ whenever they are created or written.
// Subdirectories are not watched.
type Watcher struct {
	split      driving.SplitService
	converters driven.ConverterRegistry
	outputRoot string
	opts       driving.SplitOptions
	debounce   time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher.
func New(
	split driving.SplitService,
	converters driven.ConverterRegistry,
	outputRoot string,
	opts driving.SplitOptions,
	options ...Option,
) *Watcher {
	w := &Watcher{
		split:      split,
		converters: converters,
		outputRoot: outputRoot,
		opts:       opts,
		debounce:   DefaultDebounce,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Watch starts watching dir. Results arrive on the returned channel, which
// is closed once ctx is cancelled and any in-flight split has finished.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Result, error) {
	if w.split == nil || w.converters == nil {
		return nil, errors.New("watcher: split service and converters are required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Debug("watching %s (output %s)", dir, w.outputRoot)

	ready := make(chan string, 16)
	results := make(chan Result)

	go w.dispatch(ctx, fsw, ready)
	go w.process(ctx, ready, results)
	return results, nil
}

// dispatch turns raw events into debounced paths. It is the only sender on
// ready and closes it on exit.
func (w *Watcher) dispatch(ctx context.Context, fsw *fsnotify.Watcher, ready chan<- string) {
	defer close(ready)
	defer fsw.Close()

	pending := make(map[string]time.Time)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if path, ok := w.candidate(event); ok {
				pending[path] = time.Now().Add(w.debounce)
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)
		case now := <-timer.C:
			next := time.Duration(0)
			for path, due := range pending {
				if wait := due.Sub(now); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, path)
				select {
				case ready <- path:
				case <-ctx.Done():
					return
				}
			}
			if next > 0 {
				timer.Reset(next)
			}
		}
	}
}

// process splits ready paths one at a time.
func (w *Watcher) process(ctx context.Context, ready <-chan string, results chan<- Result) {
	defer close(results)
	for path := range ready {
		if ctx.Err() != nil {
			continue
		}
		res := w.splitOne(ctx, path)
		select {
		case results <- res:
		case <-ctx.Done():
		}
	}
}

func (w *Watcher) splitOne(ctx context.Context, path string) Result {
	out := filepath.Join(w.outputRoot, domain.SourceStem(filepath.Base(path)))
	logger.Info("splitting %s into %s", path, out)
	res, err := w.split.SplitFile(ctx, path, out, w.opts)
	if err != nil {
		logger.Warn("split %s: %v", path, err)
	}
	return Result{Path: path, OutputDir: out, Split: res, Err: err}
}

// candidate reports whether an event names a file worth splitting.
// Only creates and writes of visible, convertible regular files count, and
// nothing under the output root.
func (w *Watcher) candidate(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	path := event.Name
	if strings.HasPrefix(filepath.Base(path), ".") {
		return "", false
	}
	if w.insideOutput(path) {
		return "", false
	}
	if _, err := w.converters.ForPath(path); err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (w *Watcher) insideOutput(path string) bool {
	if w.outputRoot == "" {
		return false
	}
	root, err := filepath.Abs(w.outputRoot)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && filepath.Dir(rel) != "."
}
