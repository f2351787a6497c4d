// Package watch re-renders the merged output every time the watched
// directory changes.
package watch

import (
	"context"
	"errors"
	"time"

	"fortio.org/log"
)

// ErrWatchClosed means the change subscription can't be re-armed.
var ErrWatchClosed = errors.New("watch subscription closed")

// EventSource produces "something changed" ticks for a directory.
// Several changes may be coalesced into one tick.
type EventSource interface {
	// Wait blocks until the next change. It returns ctx.Err() when ctx is
	// done and an error wrapping ErrWatchClosed when no more change can be
	// observed.
	Wait(ctx context.Context) error
	// Drain discards changes that happened since the last Wait.
	Drain(ctx context.Context)
	Close() error
}

// Loop renders once, then once per change, until interrupted.
type Loop struct {
	Config Config
	Source EventSource
	Sink   Sink
	Now    func() time.Time // defaults to time.Now
}

// Run returns nil on interruption or when the subscription ends, and the
// render error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	now := l.Now
	if now == nil {
		now = time.Now
	}
	printed := 0 // progress lines of the previous render, 0 before the first
	for renders := 1; ; renders++ {
		l.Sink.Erase(printed)
		n, err := Render(ctx, l.Config, l.Sink, now())
		printed = n
		if err != nil {
			return err // I/O or missing entry, fatal
		}
		log.LogVf("Render #%d done, %d progress lines", renders, printed)
		// Whatever happened during the write is already in the output
		l.Source.Drain(ctx)
		if err := l.Source.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				// Interrupt while idle is the normal way out
				log.Infof("Interrupted, stopping watch of %s after %d renders", l.Config.WatchedDir, renders)
				return nil
			}
			log.Errf("Can't re-arm watch of %s: %v", l.Config.WatchedDir, err)
			l.Sink.Stopped("Can't reset watch. Exiting!")
			return nil
		}
	}
}
