// coalesce watches a directory of Java sources and keeps a single merged
// Player.java up to date in the output directory.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/fatih/color"
	"github.com/viant/afs"

	"github.com/ldemailly/coalesce/console"
	"github.com/ldemailly/coalesce/merge"
	"github.com/ldemailly/coalesce/unit"
	"github.com/ldemailly/coalesce/watch"
)

func main() {
	entry := flag.String("entry", merge.DefaultEntry, "Name of the entry `file` the others are merged into")
	suffix := flag.String("suffix", unit.DefaultSuffix, "Suffix of the source files to merge")
	poll := flag.Duration("poll", 0, "Poll the directory at this `interval` instead of using file system notifications")
	noColor := flag.Bool("nocolor", false, "Disable colored progress output")
	cli.ArgsHelp = "watched-dir output-dir"
	cli.MinArgs = 2
	cli.MaxArgs = 2
	cli.Main()

	watchedDir, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("Invalid watched directory %q: %v", flag.Arg(0), err)
	}
	outputDir, err := filepath.Abs(flag.Arg(1))
	if err != nil {
		log.Fatalf("Invalid output directory %q: %v", flag.Arg(1), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := merge.DefaultOptions()
	opts.Entry = *entry
	filter := unit.DefaultFilter()
	filter.Suffix = *suffix
	cfg := watch.Config{
		FS:         afs.New(),
		WatchedDir: watchedDir,
		OutputDir:  outputDir,
		Filter:     filter,
		Merge:      opts,
	}

	out := console.New(os.Stdout, !*noColor && !color.NoColor)
	out.Watching(watchedDir)
	out.Output(cfg.OutputFile())

	source, err := newSource(ctx, cfg, *poll)
	if err != nil {
		log.Fatalf("Unable to watch %s: %v", watchedDir, err)
	}
	loop := &watch.Loop{Config: cfg, Source: source, Sink: out}
	err = loop.Run(ctx)
	source.Close()
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
}

// newSource picks polling when an interval is given, OS notifications otherwise.
func newSource(ctx context.Context, cfg watch.Config, interval time.Duration) (watch.EventSource, error) {
	if interval > 0 {
		log.Infof("Polling %s every %v", cfg.WatchedDir, interval)
		return watch.NewPollSource(ctx, cfg.FS, cfg.WatchedDir, interval)
	}
	return watch.NewNotifySource(cfg.WatchedDir)
}
