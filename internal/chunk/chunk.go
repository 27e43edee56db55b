// Package chunk splits an input buffer into record-aligned ranges, one per
// worker.
package chunk

import "bytes"

// Delim terminates every record.
const Delim = '\n'

// Range is the half-open byte interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len is the number of bytes in r.
func (r Range) Len() int { return r.End - r.Start }

// Plan is an ordered, non-overlapping cover of [0, L).
type Plan []Range

// Split divides data into at most workers ranges. Every range but the first
// starts right after a Delim; the last one ends at len(data). Fewer ranges
// are returned when data has fewer safe split points than workers, so no
// range is ever empty. An empty buffer yields an empty plan.
func Split(data []byte, workers int) Plan {
	size := len(data)
	if size == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	plan := make(Plan, 0, workers)
	start := 0
	for i := 1; i < workers; i++ {
		off := i * size / workers
		if off < start {
			// the previous boundary overran this nominal offset
			off = start
		}
		idx := bytes.IndexByte(data[off:], Delim)
		if idx < 0 {
			break
		}
		next := off + idx + 1
		if next >= size {
			break
		}
		plan = append(plan, Range{Start: start, End: next})
		start = next
	}
	return append(plan, Range{Start: start, End: size})
}

// Covers reports whether p partitions [0, size) exactly and every inner
// boundary immediately follows a Delim.
func (p Plan) Covers(data []byte) bool {
	if len(data) == 0 {
		return len(p) == 0
	}
	pos := 0
	for _, r := range p {
		if r.Start != pos || r.End <= r.Start {
			return false
		}
		if r.Start > 0 && data[r.Start-1] != Delim {
			return false
		}
		pos = r.End
	}
	return pos == len(data)
}
