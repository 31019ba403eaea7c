package logrecord

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const maxLineSize = 1 << 20

// ExpandGlobs resolves a set of logfile-glob settings into a sorted,
// de-duplicated list of file paths. "-" is passed through unchanged as
// the stdin sentinel.
func ExpandGlobs(globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, g := range globs {
		if g == "-" {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(g)
		if err != nil {
			return nil, fmt.Errorf("logrecord: bad glob %q: %w", g, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func openSource(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("logrecord: %s: %w", path, err)
		}
		return &gzipCloser{gz: gz, f: f}, nil
	}
	return f, nil
}

type gzipCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// Visitor is called once per parsed audit record found while streaming
// a set of log files, with the originating file and 1-based line
// number for error reporting.
type Visitor func(path string, lineNo int, rec Record)

// ErrorHandler is called for unreadable files; returning a non-nil
// error aborts the whole scan.
type ErrorHandler func(path string, err error) error

// StreamPaths reads every path in order, feeding candidate records to
// visit. A file that fails to open is reported to onError, which
// decides whether the scan skips it (nil) or stops (non-nil).
func StreamPaths(paths []string, visit Visitor, onError ErrorHandler) error {
	for _, path := range paths {
		r, err := openSource(path)
		if err != nil {
			if onError != nil {
				if herr := onError(path, err); herr != nil {
					return herr
				}
			}
			continue
		}
		err = scanOne(path, r, visit)
		r.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func scanOne(path string, r io.Reader, visit Visitor) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		visit(path, lineNo, rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("logrecord: %s:%d: %w", path, lineNo, err)
	}
	return nil
}
