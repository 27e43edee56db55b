// Package report turns accumulated statistics into the final per-key
// summary and renders it.
package report

import (
	"bufio"
	"bytes"
	"io"
	"slices"
	"strings"

	"github.com/andreyvit/diff"

	"github.com/example/brc/internal/fixed"
	"github.com/example/brc/internal/stats"
)

// Row is the summary of one key. Min, Max and Mean are in tenths.
type Row struct {
	Key   string
	Count uint64
	Min   int64
	Max   int64
	Mean  int64
}

// Report holds one row per observed key.
type Report struct {
	Rows []Row
}

// New builds a report from entries, skipping those without observations.
// Rows are ordered by key when sorted is set.
func New(entries []stats.Entry, sorted bool) *Report {
	r := &Report{Rows: make([]Row, 0, len(entries))}
	for _, e := range entries {
		if e.Count == 0 {
			continue
		}
		r.Rows = append(r.Rows, Row{
			Key:   e.Name,
			Count: e.Count,
			Min:   e.Min,
			Max:   e.Max,
			Mean:  fixed.Mean(e.Sum, e.Count),
		})
	}
	if sorted {
		r.Sort()
	}
	return r
}

// FromTable builds a report from every observed entry of t.
func FromTable(t *stats.Table, sorted bool) *Report {
	return New(t.Entries(), sorted)
}

// Sort orders rows by key.
func (r *Report) Sort() {
	slices.SortFunc(r.Rows, func(a, b Row) int { return strings.Compare(a.Key, b.Key) })
}

// Len is the number of rows.
func (r *Report) Len() int { return len(r.Rows) }

// Lookup returns the row for key.
func (r *Report) Lookup(key string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return Row{}, false
}

// AppendRow appends "<key>;<min>;<max>;<mean>\n".
func AppendRow(dst []byte, row Row) []byte {
	dst = append(dst, row.Key...)
	dst = append(dst, ';')
	dst = fixed.Append(dst, row.Min)
	dst = append(dst, ';')
	dst = fixed.Append(dst, row.Max)
	dst = append(dst, ';')
	dst = fixed.Append(dst, row.Mean)
	return append(dst, '\n')
}

// WriteTo renders every row to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<16)
	var n int64
	line := make([]byte, 0, 128)
	for _, row := range r.Rows {
		line = AppendRow(line[:0], row)
		m, err := bw.Write(line)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// String renders the report.
func (r *Report) String() string {
	var b bytes.Buffer
	_, _ = r.WriteTo(&b)
	return b.String()
}

// Diff returns a line diff from want to got; it is empty when they match.
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	return diff.LineDiff(diff.TrimLinesInString(want), diff.TrimLinesInString(got))
}
