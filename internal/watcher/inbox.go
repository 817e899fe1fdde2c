// Package watcher ingests documents dropped into inbox directories.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Ingester ingests one file from disk. *indexer.Indexer satisfies it.
type Ingester interface {
	IngestPath(ctx context.Context, path string, allowedExts []string) (*models.IngestResult, error)
}

// ResultFunc observes every finished ingestion.
type ResultFunc func(path string, res *models.IngestResult, err error)

// Inbox watches a set of flat directories and ingests new or rewritten files
// once they have been quiet for the debounce period. Subdirectories are ignored.
type Inbox struct {
	ingester   Ingester
	extensions []string
	debounce   time.Duration
	onResult   ResultFunc
	logger     *zap.Logger

	mu      sync.Mutex
	dirs    []string
	pending map[string]*time.Timer
	fsw     *fsnotify.Watcher
	ctx     context.Context
	done    chan struct{}
	started bool

	// ingestMu serialises ingestions so one burst of files does not fan out
	// into parallel embedding and upsert calls.
	ingestMu sync.Mutex
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) { in.logger = l }
}

// WithDebounce sets how long a file must stay unchanged before it is ingested.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) { in.debounce = d }
}

// WithResultFunc registers a callback run after each ingestion attempt.
func WithResultFunc(fn ResultFunc) Option {
	return func(in *Inbox) { in.onResult = fn }
}

// NewInbox creates an inbox over dirs. Only files whose extension is listed
// are ingested; an empty list accepts every file the ingester can read.
func NewInbox(dirs, extensions []string, ingester Ingester, opts ...Option) *Inbox {
	in := &Inbox{
		ingester:   ingester,
		extensions: append([]string(nil), extensions...),
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
	}
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			in.dirs = append(in.dirs, filepath.Clean(abs))
		}
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	return in
}

// Start begins watching. Missing directories are created. It returns once the
// watches are in place; events are handled until ctx is cancelled or Stop is called.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	for _, dir := range in.dirs {
		if err := watchDir(fsw, dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	in.fsw = fsw
	in.ctx = ctx
	in.done = make(chan struct{})
	in.started = true
	in.logger.Info("inbox watching", zap.Strings("directories", in.dirs), zap.Strings("extensions", in.extensions))
	go in.loop(ctx, fsw, in.done)
	return nil
}

func watchDir(fsw *fsnotify.Watcher, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create inbox %s: %w", dir, err)
	}
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

func (in *Inbox) loop(ctx context.Context, fsw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			in.Stop()
			return
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			in.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			in.logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}

func (in *Inbox) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		if !in.accepts(path) {
			return
		}
		in.schedule(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		in.cancel(path)
	}
}

func (in *Inbox) accepts(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return matchExtension(path, in.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (in *Inbox) schedule(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.started {
		return
	}
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		delete(in.pending, path)
		ctx := in.ctx
		in.mu.Unlock()
		in.ingest(ctx, path)
	})
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
		delete(in.pending, path)
	}
}

func (in *Inbox) ingest(ctx context.Context, path string) {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ingestMu.Lock()
	res, err := in.ingester.IngestPath(ctx, path, in.extensions)
	in.ingestMu.Unlock()
	if err != nil {
		in.logger.Error("inbox ingestion failed", zap.String("path", path), zap.Error(err))
	} else {
		in.logger.Info("inbox file ingested",
			zap.String("path", path),
			zap.String("source_id", res.SourceID),
			zap.Int("chunks", res.ChunksProcessed))
	}
	if in.onResult != nil {
		in.onResult(path, res, err)
	}
}

// AddDirectory starts watching dir. With syncExisting, files already in it
// are ingested in the background.
func (in *Inbox) AddDirectory(dir string, syncExisting bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, d := range in.dirs {
		if d == abs {
			return nil
		}
	}
	if in.fsw != nil {
		if err := watchDir(in.fsw, abs); err != nil {
			return err
		}
	}
	in.dirs = append(in.dirs, abs)
	in.logger.Info("inbox directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting && in.started {
		go in.syncDir(in.ctx, abs)
	}
	return nil
}

// RemoveDirectory stops watching dir. Passages already ingested stay in the store.
func (in *Inbox) RemoveDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, d := range in.dirs {
		if d != abs {
			continue
		}
		if in.fsw != nil {
			_ = in.fsw.Remove(abs)
		}
		in.dirs = append(in.dirs[:i], in.dirs[i+1:]...)
		for path, t := range in.pending {
			if filepath.Dir(path) == abs {
				t.Stop()
				delete(in.pending, path)
			}
		}
		in.logger.Info("inbox directory removed", zap.String("path", abs))
		return nil
	}
	return nil
}

// Directories returns the watched directories.
func (in *Inbox) Directories() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.dirs...)
}

// SyncExisting ingests the files already present in every watched directory.
// It blocks until all of them have been processed.
func (in *Inbox) SyncExisting(ctx context.Context) {
	for _, dir := range in.Directories() {
		in.syncDir(ctx, dir)
	}
}

func (in *Inbox) syncDir(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		in.logger.Warn("inbox sync failed", zap.String("path", dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if in.accepts(path) {
			in.ingest(ctx, path)
		}
	}
}

// Stop stops watching and drops pending ingestions.
func (in *Inbox) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.started {
		return
	}
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
	_ = in.fsw.Close()
	in.fsw = nil
	in.started = false
	close(in.done)
}
