package pipeline

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"neurolint/internal/logging"
)

// Watcher re-runs a Pipeline against a target file whenever it changes on
// disk: a debounced event loop watching the target's directory, started
// non-blocking in a goroutine and stopped via a close channel.
type Watcher struct {
	pipeline *Pipeline
	target   string
	watcher  *fsnotify.Watcher

	debounceDur time.Duration
	mu          sync.Mutex
	pending     map[string]time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a Watcher that re-runs p against target (a single
// file) on every settled write, debounced by 300ms.
func NewWatcher(p *Pipeline, target string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(target)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		pipeline:    p,
		target:      target,
		watcher:     fsw,
		debounceDur: 300 * time.Millisecond,
		pending:     make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine and returns immediately.
func (w *Watcher) Start() {
	go w.run()
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.target || event.Op&fsnotify.Write == 0 {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.PipelineWarn("watch: %v", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	var ready []string
	now := time.Now()
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		logging.Pipeline("watch: re-running pipeline for %s", path)
		if _, err := w.pipeline.Run(path); err != nil {
			logging.PipelineWarn("watch: run failed for %s: %v", path, err)
		}
	}
}
