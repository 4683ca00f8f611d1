// Package watcher reports changes to the recall database so open views
// can reload. It prefers fsnotify and polls when the database lives on a
// remote filesystem or RECALL_FORCE_POLLING=1.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/recall/pkg/debug"
)

// DefaultPollInterval is used when fsnotify is not trusted.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// SQLiteSidecars are the companion files of a WAL-mode database. Commits
// land in recall.db-wal and only reach recall.db on checkpoint.
var SQLiteSidecars = []string{"-wal"}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long writes must be quiet before a change fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithSidecars also watches files named path+suffix.
func WithSidecars(suffixes ...string) WatcherOption {
	return func(w *Watcher) { w.sidecars = append(w.sidecars, suffixes...) }
}

// WithOnChange sets a callback run on every debounced change, in addition
// to the Changed channel.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError receives ErrFileRemoved and fsnotify errors. The default
// logs them with debug.Log.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

type fileState struct {
	mtime time.Time
	size  int64
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{mtime: info.ModTime(), size: info.Size()}
}

// Watcher watches recall.db and its sidecars.
type Watcher struct {
	path     string
	sidecars []string
	debounce time.Duration
	interval time.Duration
	onChange func()
	onError  func(error)

	// forcePoll skips fsnotify; set from RECALL_FORCE_POLLING or in tests.
	forcePoll bool

	mu        sync.Mutex
	started   bool
	polling   bool
	cancel    context.CancelFunc
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	changeCh  chan struct{}
}

// NewWatcher creates a watcher for the database at path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:      abs,
		debounce:  DefaultDebounceDuration,
		interval:  DefaultPollInterval,
		onChange:  func() {},
		onError:   func(err error) { debug.Log("watcher: %s: %v", abs, err) },
		forcePoll: os.Getenv("RECALL_FORCE_POLLING") == "1",
		changeCh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Path returns the absolute path of the watched database.
func (w *Watcher) Path() string { return w.path }

// Changed receives once per debounced change. Sends never block; a change
// that arrives while one is pending is merged into it.
func (w *Watcher) Changed() <-chan struct{} { return w.changeCh }

// files maps each watched base name to its full path.
func (w *Watcher) files() map[string]string {
	m := make(map[string]string, 1+len(w.sidecars))
	m[filepath.Base(w.path)] = w.path
	for _, s := range w.sidecars {
		m[filepath.Base(w.path+s)] = w.path + s
	}
	return m
}

// Start begins watching. The database does not have to exist yet.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.polling = w.forcePoll
	if fs := DetectFilesystemType(w.path); isRemoteFilesystem(fs) {
		debug.Log("watcher: %s is on %s, polling", w.path, fs)
		w.polling = true
	}

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// The directory, not the file: SQLite and editors replace files.
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable, polling: %v", err)
			w.polling = true
		} else {
			w.fsw = fsw
			go w.watchEvents(ctx, fsw)
		}
	}
	if w.polling {
		go w.poll(ctx)
	}
	w.started = true
	return nil
}

// Stop stops watching. Changed stays open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Run starts the watcher, blocks until ctx ends and stops it, so it can
// run as an errgroup worker.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Started reports whether the watcher is running.
func (w *Watcher) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Polling reports whether the watcher fell back to stat polling.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

func (w *Watcher) watchEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	names := w.files()
	db := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if _, watched := names[name]; !watched {
				continue
			}
			switch {
			case name == db && ev.Op.Has(fsnotify.Remove):
				w.onError(ErrFileRemoved)
			case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename):
				w.debouncer.Trigger(w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	files := w.files()
	last := make(map[string]fileState, len(files))
	for _, p := range files {
		last[p] = statFile(p)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		changed := false
		for _, p := range files {
			cur := statFile(p)
			prev := last[p]
			if cur == prev {
				continue
			}
			last[p] = cur
			if p == w.path && cur == (fileState{}) {
				w.onError(ErrFileRemoved)
				continue
			}
			changed = true
		}
		if changed {
			w.debouncer.Trigger(w.notify)
		}
	}
}

func (w *Watcher) notify() {
	if !w.Started() {
		return
	}
	w.onChange()
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
