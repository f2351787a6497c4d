// Package console prints the human readable progress of each render and
// erases it before the next one.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/fatih/color"
)

// Console writes progress lines to a terminal.
type Console struct {
	w      io.Writer
	path   *color.Color
	read   *color.Color
	none   *color.Color
	wrote  *color.Color
	failed *color.Color
}

// New returns a Console writing to w. When colored is false no escape
// sequence other than cursor movement is emitted.
func New(w io.Writer, colored bool) *Console {
	c := &Console{
		w:      w,
		path:   color.New(color.FgHiWhite),
		read:   color.New(color.FgHiGreen),
		none:   color.New(color.FgHiYellow),
		wrote:  color.New(color.FgHiCyan),
		failed: color.New(color.FgHiRed),
	}
	for _, col := range []*color.Color{c.path, c.read, c.none, c.wrote, c.failed} {
		if colored {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Watching announces the watched directory.
func (c *Console) Watching(dir string) {
	fmt.Fprintf(c.w, "Watching: %s\n", c.path.Sprint(dir))
}

// Output announces the output file.
func (c *Console) Output(file string) {
	fmt.Fprintf(c.w, "Output: %s\n", c.path.Sprint(file))
}

// Read reports one loaded file.
func (c *Console) Read(name string, lines int) {
	fmt.Fprintf(c.w, "Read: %s (%d lines)\n", c.read.Sprint(name), lines)
}

// Nothing reports that no file was eligible.
func (c *Console) Nothing() {
	fmt.Fprintf(c.w, "Read: %s\n", c.none.Sprint("Nothing"))
}

// Wrote reports the output file was written.
func (c *Console) Wrote(name string) {
	fmt.Fprintf(c.w, "Write: %s\n", c.wrote.Sprint(name))
}

// Stopped reports why watching ended.
func (c *Console) Stopped(reason string) {
	fmt.Fprintf(c.w, "%s\n", c.failed.Sprint(reason))
}

// Erase clears the last n lines and leaves the cursor where the first of
// them started.
func (c *Console) Erase(n int) {
	if n <= 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(ansi.CursorUp(n))
	for range n {
		// Clear then step down, the cursor stays in column 0
		sb.WriteString(ansi.EraseEntireLine)
		sb.WriteString("\n")
	}
	sb.WriteString(ansi.CursorUp(n))
	io.WriteString(c.w, sb.String())
}
