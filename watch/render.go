package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/ldemailly/coalesce/merge"
	"github.com/ldemailly/coalesce/unit"
)

// OutputMode of the written file.
const OutputMode = 0o644

// Sink is where progress lines of a render go.
type Sink interface {
	unit.Sink
	Wrote(name string)
	Erase(lines int)
	Stopped(reason string)
}

// Config is everything a render needs.
type Config struct {
	FS         afs.Service
	WatchedDir string
	OutputDir  string
	Filter     unit.Filter
	Merge      merge.Options
}

// OutputFile is where the merged file is written.
func (c Config) OutputFile() string {
	return url.Join(c.OutputDir, c.Merge.Entry)
}

// countingSink tracks how many lines a render printed.
type countingSink struct {
	unit.Sink
	lines int
}

func (s *countingSink) Read(name string, lines int) {
	s.Sink.Read(name, lines)
	s.lines++
}

func (s *countingSink) Nothing() {
	s.Sink.Nothing()
	s.lines++
}

// Render runs one read, merge and write pass. It returns the number of
// progress lines printed, which is what the next pass has to erase, even
// when it fails.
func Render(ctx context.Context, cfg Config, sink Sink, now time.Time) (int, error) {
	counter := &countingSink{Sink: sink}
	units, err := unit.LoadUnits(ctx, cfg.FS, cfg.WatchedDir, cfg.Filter, counter)
	if err != nil {
		return counter.lines, err
	}
	// Merge fully in memory first: a missing entry leaves the output untouched
	text, err := merge.Merge(units, cfg.Merge, now)
	if err != nil {
		return counter.lines, err
	}
	out := cfg.OutputFile()
	// Overwritten in place, no temp file and rename
	if err := cfg.FS.Upload(ctx, out, OutputMode, strings.NewReader(text)); err != nil {
		return counter.lines, fmt.Errorf("failed to write %s: %w", out, err)
	}
	log.LogVf("Wrote %d bytes to %s from %d units", len(text), out, len(units))
	sink.Wrote(cfg.Merge.Entry)
	return counter.lines + 1, nil
}
