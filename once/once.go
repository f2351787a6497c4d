// Merge a directory once and print the result, for piping to a clipboard
// or diffing against the watched output.

package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"time"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/viant/afs"

	"github.com/ldemailly/coalesce/merge"
	"github.com/ldemailly/coalesce/unit"
)

// logSink reports progress on the log (stderr) so stdout only has the merged file.
type logSink struct{}

func (logSink) Read(name string, lines int) {
	log.Infof("Read: %s (%d lines)", name, lines)
}

func (logSink) Nothing() {
	log.Warnf("Read: Nothing")
}

func main() {
	entry := flag.String("entry", merge.DefaultEntry, "Name of the entry `file` the others are merged into")
	suffix := flag.String("suffix", unit.DefaultSuffix, "Suffix of the source files to merge")
	cli.ArgsHelp = "dir"
	cli.MinArgs = 1
	cli.MaxArgs = 1
	cli.Main()

	filter := unit.DefaultFilter()
	filter.Suffix = *suffix
	opts := merge.DefaultOptions()
	opts.Entry = *entry

	output := bufio.NewWriter(os.Stdout)
	err := run(context.Background(), flag.Arg(0), filter, opts, output)
	output.Flush() // whatever was merged, even on a later write error
	if err != nil {
		log.Fatalf("Failed merging %s: %v", flag.Arg(0), err)
	}
	log.Infof("Done.")
}

// run loads dir, merges it and writes the result to w.
func run(ctx context.Context, dir string, filter unit.Filter, opts merge.Options, w io.Writer) error {
	units, err := unit.LoadUnits(ctx, afs.New(), dir, filter, logSink{})
	if err != nil {
		return err
	}
	// Nothing is written when the entry file is missing
	text, err := merge.Merge(units, opts, time.Now())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
