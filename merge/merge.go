// Package merge turns a set of loaded units into a single source file.
//
// The entry unit is copied line by line. A line holding the timestamp
// token becomes a comment with the render time, a line holding the code
// token becomes every other unit nested as a static member class. Imports
// of all units are hoisted to the top, deduplicated.
package merge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ldemailly/coalesce/unit"
)

const (
	// DefaultEntry is the file name the platform expects.
	DefaultEntry = "Player.java"
	// TimestampToken is replaced by the render time.
	TimestampToken = "[[GCC::TIMESTAMP]]"
	// CodeToken is replaced by all the other units.
	CodeToken = "[[GCC::CODE]]"
	// Indent is one nesting level.
	Indent = "    "
	// TimestampLayout renders as uuuu-MM-dd|HH:mm:ss.SSS.
	TimestampLayout = "2006-01-02|15:04:05.000"

	staticModifier = "static "
	newLine        = "\n"
)

// ErrMissingEntryUnit means no loaded unit carries the entry name.
var ErrMissingEntryUnit = errors.New("missing entry unit")

// Options controls the textual protocol between the entry file and the merge.
type Options struct {
	Entry          string
	TimestampToken string
	CodeToken      string
	Indent         string
}

// DefaultOptions uses Player.java and the [[GCC::...]] tokens.
func DefaultOptions() Options {
	return Options{
		Entry:          DefaultEntry,
		TimestampToken: TimestampToken,
		CodeToken:      CodeToken,
		Indent:         Indent,
	}
}

// Merge assembles the output text: imports, a blank line, then the
// expanded entry body. Units other than the entry keep their order.
func Merge(units []*unit.Unit, opts Options, now time.Time) (string, error) {
	entry, others, err := Partition(units, opts.Entry)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for imp := range Imports(units) {
		sb.WriteString(imp)
		sb.WriteString(newLine)
	}
	sb.WriteString(newLine)
	for _, line := range Expand(entry, others, opts, now) {
		sb.WriteString(line)
		sb.WriteString(newLine)
	}
	return sb.String(), nil
}

// Partition splits units into the entry unit and the rest. The first
// unit with the entry name wins.
func Partition(units []*unit.Unit, entryName string) (*unit.Unit, []*unit.Unit, error) {
	var entry *unit.Unit
	others := make([]*unit.Unit, 0, len(units))
	for _, u := range units {
		if entry == nil && u.Name == entryName {
			entry = u
			continue
		}
		others = append(others, u)
	}
	if entry == nil {
		return nil, nil, fmt.Errorf("%w: no %s among %d units", ErrMissingEntryUnit, entryName, len(units))
	}
	return entry, others, nil
}

// Imports is the union of all import lines. Iteration order is unspecified.
func Imports(units []*unit.Unit) map[string]struct{} {
	set := make(map[string]struct{})
	for _, u := range units {
		for _, imp := range u.Imports {
			set[imp] = struct{}{}
		}
	}
	return set
}

// Expand returns the entry body with both tokens substituted. Each line
// holding a token substitutes on its own, so a repeated token repeats its
// expansion and a missing one contributes nothing.
func Expand(entry *unit.Unit, others []*unit.Unit, opts Options, now time.Time) []string {
	var out []string
	for _, line := range entry.Body() {
		switch {
		case hasToken(line, opts.TimestampToken):
			out = append(out, leadingSpace(line)+"// "+Timestamp(now))
		case hasToken(line, opts.CodeToken):
			for _, u := range others {
				out = append(out, Nest(u.Body(), opts.Indent)...)
				out = append(out, "")
			}
		default:
			out = append(out, line)
		}
	}
	return out
}

// Nest indents lines by one level and makes the first line static so the
// nested class doesn't need an enclosing instance.
func Nest(lines []string, indent string) []string {
	nested := make([]string, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			nested = append(nested, indent+staticModifier+line)
			continue
		}
		nested = append(nested, indent+line)
	}
	return nested
}

// Timestamp formats t in the local zone.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

func hasToken(line, token string) bool {
	return token != "" && strings.Contains(line, token)
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
