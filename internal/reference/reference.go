// Package reference is a deliberately plain single-threaded reader used to
// check the parallel engine's output.
package reference

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/fixed"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/report"
	"github.com/example/brc/internal/stats"
)

// Filter decides whether a record with key is counted. A non-nil error
// aborts the read.
type Filter func(key []byte) (keep bool, err error)

// Resolved keeps the records r accepts and fails where r fails, so the
// reference pass sees the same key universe as a run using r.
func Resolved(r keys.Resolver) Filter {
	if r == nil {
		return nil
	}
	return func(key []byte) (bool, error) {
		_, ok, err := r.Resolve(key)
		return ok, err
	}
}

// Aggregate reads every record of path sequentially. A nil keep counts
// every record.
func Aggregate(path string, sorted bool, keep Filter) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.IO("open", path, err)
	}
	defer f.Close()
	return Read(f, sorted, keep)
}

// Read aggregates every record from r that keep accepts. Values are
// parsed before keep runs, so filtered records are still validated.
func Read(r io.Reader, sorted bool, keep Filter) (*report.Report, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	byName := make(map[string]*stats.Entry)
	var order []string

	offset := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				return nil, fault.At(offset, fault.ErrMissingNewline)
			}
			key, value, found := bytes.Cut(line[:len(line)-1], []byte{';'})
			if !found {
				return nil, fault.At(offset, fault.ErrMissingSeparator)
			}
			if len(key) == 0 {
				return nil, fault.At(offset, fault.ErrEmptyKey)
			}
			v, perr := fixed.Parse(value)
			if perr != nil {
				return nil, fault.At(offset, fmt.Errorf("value %q: %w", value, perr))
			}

			counted := true
			if keep != nil {
				ok, kerr := keep(key)
				if kerr != nil {
					return nil, fault.At(offset, kerr)
				}
				counted = ok
			}

			if counted {
				e, ok := byName[string(key)]
				if !ok {
					e = stats.NewEntry(string(key))
					byName[e.Name] = e
					order = append(order, e.Name)
				}
				e.Add(v)
			}
			offset += len(line)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read: %w", fault.ErrIO, err)
		}
	}

	entries := make([]stats.Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, *byName[name])
	}
	return report.New(entries, sorted), nil
}
