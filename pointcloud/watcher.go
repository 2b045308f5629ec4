package pointcloud

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/pointview/logging"
	"go.viam.com/pointview/utils"
)

// DefaultWatchQuietPeriod is how long a points file must stay untouched before a change is
// reported. Editors tend to write a file in several steps.
const DefaultWatchQuietPeriod = 250 * time.Millisecond

// FileWatcher reports when a points file has been modified.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan struct{}
	workers utils.StoppableWorkers
	logger  logging.Logger
}

// NewFileWatcher starts watching path. The parent directory is watched rather than the file so
// that editors which replace the file on save are still observed.
func NewFileWatcher(path string, quiet time.Duration, logger logging.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create file watcher")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "cannot watch %q", path), watcher.Close())
	}

	fw := &FileWatcher{
		path:    abs,
		watcher: watcher,
		changes: make(chan struct{}, 1),
		logger:  logger,
	}
	debounced := debounce.New(quiet)
	fw.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		fw.run(ctx, debounced)
	})
	return fw, nil
}

func (fw *FileWatcher) run(ctx context.Context, debounced func(func())) {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path || event.Op&relevant == 0 {
				continue
			}
			fw.logger.Debugw("points file event", "file", event.Name, "op", event.Op.String())
			debounced(fw.notify)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warnw("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) notify() {
	select {
	case fw.changes <- struct{}{}:
	default:
	}
}

// Changes returns a channel that receives a value after the file has been modified. Changes that
// arrive while a previous one is unconsumed are coalesced.
func (fw *FileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	fw.workers.Stop()
	return fw.watcher.Close()
}
