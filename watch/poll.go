package watch

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"sort"
	"time"

	"fortio.org/log"
	"github.com/viant/afs"
)

// PollSource is an EventSource for platforms without push notifications:
// it lists the directory every interval and ticks when the listing differs.
type PollSource struct {
	fs       afs.Service
	dir      string
	interval time.Duration
	last     string
}

// NewPollSource takes the initial snapshot of dir.
func NewPollSource(ctx context.Context, fs afs.Service, dir string, interval time.Duration) (*PollSource, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid poll interval %v", interval)
	}
	s := &PollSource{fs: fs, dir: dir, interval: interval}
	last, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	s.last = last
	return s, nil
}

func (s *PollSource) Wait(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current, err := s.fingerprint(ctx)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWatchClosed, err)
			}
			if current != s.last {
				log.LogVf("Listing of %s changed", s.dir)
				s.last = current
				return nil
			}
		}
	}
}

// Drain makes the current listing the reference.
func (s *PollSource) Drain(ctx context.Context) {
	current, err := s.fingerprint(ctx)
	if err != nil {
		log.Warnf("Can't list %s: %v", s.dir, err)
		return
	}
	s.last = current
}

func (s *PollSource) Close() error {
	return nil
}

// fingerprint hashes name, size and mod time of the regular files.
func (s *PollSource) fingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err // shutting down, keep the previous reference
	}
	objects, err := s.fs.List(ctx, s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	entries := make([]string, 0, len(objects))
	for _, obj := range objects {
		if !obj.Mode().IsRegular() {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s|%d|%d", obj.Name(), obj.Size(), obj.ModTime().UnixNano()))
	}
	sort.Strings(entries)
	h := sha1.New()
	for _, e := range entries {
		io.WriteString(h, e)
		io.WriteString(h, "|") // Separator
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
