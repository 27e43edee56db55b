// Package scan walks the records of one chunk without copying.
package scan

import (
	"bytes"
	"io"

	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/fault"
)

// Sep separates a key from its value.
const Sep = ';'

// Scanner is a cursor over the records of a single range. The zero value
// is an exhausted scanner.
type Scanner struct {
	data []byte
	pos  int
	end  int
}

// New returns a scanner over data[r.Start:r.End].
func New(data []byte, r chunk.Range) Scanner {
	return Scanner{data: data, pos: r.Start, end: r.End}
}

// Offset is the position of the next unread byte.
func (s *Scanner) Offset() int { return s.pos }

// Next returns the key and value spans of the next record. The spans alias
// the underlying buffer. At the end of the range Next returns io.EOF; a
// record that is not terminated before the range end, lacks a separator or
// has an empty key is a format fault.
func (s *Scanner) Next() (key, value []byte, err error) {
	if s.pos >= s.end {
		return nil, nil, io.EOF
	}

	line := s.data[s.pos:s.end]
	nl := bytes.IndexByte(line, chunk.Delim)
	if nl < 0 {
		return nil, nil, fault.At(s.end, fault.ErrMissingNewline)
	}
	line = line[:nl]

	sep := bytes.IndexByte(line, Sep)
	if sep < 0 {
		return nil, nil, fault.At(s.pos, fault.ErrMissingSeparator)
	}
	if sep == 0 {
		return nil, nil, fault.At(s.pos, fault.ErrEmptyKey)
	}

	key, value = line[:sep], line[sep+1:]
	s.pos += nl + 1
	return key, value, nil
}
