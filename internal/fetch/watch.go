package fetch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher schedules a new pass whenever a watched file settles after
// changes. It watches the parent directory and filters on the base
// name, so editors that replace the file on save keep being seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	base     string
	onChange func()
	logger   *zap.Logger

	pending map[string]time.Time
	settle  time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher prepares a watcher for path. onChange runs once per
// settled burst of changes, it must not block.
func NewWatcher(path string, onChange func(), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]time.Time),
		settle:   250 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking and safe to call twice.
// A failed start releases the watcher; Stop stays a no-op after it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return err
	}
	w.running = true
	w.logger.Info("watching file",
		zap.String("dir", w.dir),
		zap.String("file", w.base),
	)
	go w.run()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	settleTicker := time.NewTicker(100 * time.Millisecond)
	defer settleTicker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-settleTicker.C:
			w.fireSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.base {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("file changed", zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// fireSettled runs the change callback once for every burst of events
// that has been quiet for the settle window. Rapid saves collapse to
// a single new pass.
func (w *Watcher) fireSettled() {
	w.mu.Lock()
	now := time.Now()
	fire := false
	for path, at := range w.pending {
		if now.Sub(at) >= w.settle {
			delete(w.pending, path)
			fire = true
		}
	}
	w.mu.Unlock()

	if fire {
		w.onChange()
	}
}
