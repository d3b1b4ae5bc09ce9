package discovery

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a Catalog current by re-scanning whenever fsnotify reports
// a change in one of the search directories, so a long-lived consumer sees
// a newly installed workflow binary without polling or restarting. It is
// purely additive: callers that never construct one still get a correct
// catalog from an explicit Catalog.Refresh call.
type Watcher struct {
	scanner Scanner
	catalog *Catalog
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a Watcher for scanner's search paths, logging through
// logger (nil is accepted and means silence).
func NewWatcher(scanner Scanner, catalog *Catalog, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{scanner: scanner, catalog: catalog, logger: logger, fsw: fsw}, nil
}

// Start adds every existing search directory to the underlying fsnotify
// watch list and begins the refresh loop in a background goroutine. A
// search directory that doesn't exist yet is skipped, matching Scan's own
// silent treatment of missing paths; it picks up once Start is re-run or a
// parent directory event triggers a refresh that happens to create it.
// Start returns once watches are registered; the loop runs until ctx is
// canceled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range SearchPaths(w.scanner.ExePath, w.scanner.HomeDir) {
		if err := w.fsw.Add(dir); err != nil {
			continue
		}
	}
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.catalog.Refresh(ctx, w.scanner)
			if w.logger != nil {
				w.logger.Debug("discovery catalog refreshed", "trigger", event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("discovery watcher error", "error", err)
			}
		}
	}
}
