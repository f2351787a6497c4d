// Package unit loads the source files of a watched directory into memory.
package unit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"fortio.org/log"
	"github.com/viant/afs"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultSuffix is the source file suffix of eligible files.
	DefaultSuffix = ".java"
	// DefaultMinNameLen excludes degenerate names such as ".java" itself.
	DefaultMinNameLen = 5

	importPrefix  = "import "
	packagePrefix = "package "
)

// ErrInvalidEncoding means a file is neither valid UTF-8 nor UTF-16 with a BOM.
var ErrInvalidEncoding = errors.New("invalid UTF-8")

// Unit is one loaded source file.
type Unit struct {
	Name    string   // File base name
	Lines   []string // Lines as read, terminators removed
	Imports []string // Import declarations found in Lines
}

// Sink receives progress as files are read.
type Sink interface {
	Read(name string, lines int)
	Nothing()
}

// Filter decides which directory entries are loaded.
type Filter struct {
	Suffix     string
	MinNameLen int
}

// DefaultFilter matches .java files with a non degenerate name.
func DefaultFilter() Filter {
	return Filter{Suffix: DefaultSuffix, MinNameLen: DefaultMinNameLen}
}

// Eligible reports whether a regular file with the given name should be loaded.
func (f Filter) Eligible(name string) bool {
	return len(name) > f.MinNameLen && strings.HasSuffix(name, f.Suffix)
}

// --- Reading ---

// LoadUnits reads every eligible file of dir, in name order.
func LoadUnits(ctx context.Context, fs afs.Service, dir string, filter Filter, sink Sink) ([]*Unit, error) {
	objects, err := fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	// Name order so the nesting order doesn't depend on the platform listing
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Name() < objects[j].Name() })
	var units []*Unit
	for _, obj := range objects {
		if !obj.Mode().IsRegular() || !filter.Eligible(obj.Name()) {
			continue // directories, other suffixes and degenerate names
		}
		data, err := fs.DownloadWithURL(ctx, obj.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", obj.URL(), err)
		}
		u, err := Parse(obj.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", obj.URL(), err)
		}
		log.LogVf("Loaded %s: %d lines, %d imports", u.Name, len(u.Lines), len(u.Imports))
		sink.Read(u.Name, len(u.Lines))
		units = append(units, u)
	}
	if len(units) == 0 {
		// Still one progress line, so the next erase has something to clear
		sink.Nothing()
	}
	return units, nil
}

// Parse builds a Unit from raw file content. Content must be UTF-8 (an
// optional BOM is dropped) or UTF-16 announced by its BOM.
func Parse(name string, data []byte) (*Unit, error) {
	// The decoder silently turns bad bytes into U+FFFD, check first
	if !hasUTF16BOM(data) && !utf8.Valid(data) {
		return nil, fmt.Errorf("%w in %s", ErrInvalidEncoding, name)
	}
	normalized, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, err
	}
	u := &Unit{Name: name, Lines: SplitLines(string(normalized))}
	for _, line := range u.Lines {
		if IsImport(line) {
			u.Imports = append(u.Imports, strings.TrimSpace(line))
		}
	}
	return u, nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFE, 0xFF}) || bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}

// SplitLines splits text on \n, \r\n or \r. A final terminator does not
// start an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// IsImport is a textual match, anything that starts like an import
// declaration counts.
func IsImport(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), importPrefix)
}

func isPackage(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), packagePrefix)
}

// Body returns the lines to inline: Lines minus import and package
// declarations, with leading blank lines dropped.
func (u *Unit) Body() []string {
	body := make([]string, 0, len(u.Lines))
	for _, line := range u.Lines {
		if IsImport(line) || isPackage(line) {
			continue
		}
		if len(body) == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		body = append(body, line)
	}
	return body
}
