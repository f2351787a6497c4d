package watch

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/log"
	"github.com/fsnotify/fsnotify"
)

// changeOps are the operations that trigger a render. Chmod alone doesn't.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// NotifySource is an EventSource backed by OS file system notifications.
type NotifySource struct {
	dir     string
	watcher *fsnotify.Watcher
}

// NewNotifySource subscribes to changes of dir (not recursive).
func NewNotifySource(dir string) (*NotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &NotifySource{dir: dir, watcher: w}, nil
}

func (s *NotifySource) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return ErrWatchClosed
			}
			if ev.Op&changeOps == 0 {
				log.LogVf("Ignoring %s", ev)
				continue
			}
			log.LogVf("Change: %s", ev)
			s.Drain(ctx)
			return nil
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return ErrWatchClosed
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Warnf("Event overflow on %s, rendering", s.dir)
				return nil
			}
			return fmt.Errorf("%w: %w", ErrWatchClosed, err)
		}
	}
}

// Drain empties the queued events without blocking.
func (s *NotifySource) Drain(context.Context) {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *NotifySource) Close() error {
	return s.watcher.Close()
}
