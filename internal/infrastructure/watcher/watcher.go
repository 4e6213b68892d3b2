// Package watcher ingests CSV files dropped into a watched directory.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// IngestFunc receives the file name (without extension, used as the dataset
// name) and the file content.
type IngestFunc func(ctx context.Context, name string, data []byte) error

// Watcher monitors a drop directory and ingests every CSV that appears.
// Files are only picked up after they have been quiet for the configured
// settle delay, so partially copied uploads are never read.
type Watcher struct {
	dir         string
	settleDelay time.Duration
	ingest      IngestFunc
	logger      logging.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New builds a watcher; Run must be called to start it.
func New(cfg config.WatchConfig, ingest IngestFunc, logger logging.Logger) *Watcher {
	return &Watcher{
		dir:         cfg.Dir,
		settleDelay: cfg.SettleDelay,
		ingest:      ingest,
		logger:      logger.Named("watcher"),
		pending:     make(map[string]*time.Timer),
	}
}

// Run processes any CSVs already present, then blocks watching for new files
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "creating watch directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "creating fsnotify watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "watching directory")
	}
	w.logger.Info("watching drop directory", logging.String("dir", w.dir))

	// Pick up files that arrived before the watch started.
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "scanning watch directory")
	}
	for _, entry := range entries {
		if !entry.IsDir() && isCSV(entry.Name()) {
			w.schedule(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isCSV(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", logging.Err(err))
		}
	}
}

// schedule (re)arms the settle timer for a path.  Every write resets the
// timer, so ingestion fires only after the file has stopped changing.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// process ingests one settled file and removes it on success.  Failed files
// are renamed with a .failed suffix so they are not retried in a loop.
func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("reading dropped file", logging.String("path", path), logging.Err(err))
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := w.ingest(ctx, name, data); err != nil {
		w.logger.Error("ingesting dropped file",
			logging.String("path", path),
			logging.Err(err))
		if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
			w.logger.Error("quarantining failed file", logging.Err(renameErr))
		}
		return
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("removing ingested file", logging.String("path", path), logging.Err(err))
	}
	w.logger.Info("dropped file ingested",
		logging.String("path", path),
		logging.String("dataset", name))
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
