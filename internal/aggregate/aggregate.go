// Package aggregate runs the scan, resolve, parse and accumulate loop over
// a chunk plan. Two concurrency shapes implement the same contract and
// produce identical tables for the same input.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/fixed"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/scan"
	"github.com/example/brc/internal/stats"
)

// Outcome is the merged result of one aggregation.
type Outcome struct {
	Table *stats.Table
	// Rows and Dropped are indexed like the plan.
	Rows    []int64
	Dropped []int64
}

// TotalRows is the number of records scanned across every chunk.
func (o *Outcome) TotalRows() int64 { return sum(o.Rows) }

// TotalDropped is the number of records discarded by the resolver.
func (o *Outcome) TotalDropped() int64 { return sum(o.Dropped) }

func sum(xs []int64) int64 {
	var n int64
	for _, x := range xs {
		n += x
	}
	return n
}

// Aggregator consumes every record of plan and returns the merged table.
type Aggregator interface {
	Name() string
	// Producers is how many scanning workers the shape runs when the
	// caller is granted workers goroutines in total.
	Producers(workers int) int
	Aggregate(data []byte, plan chunk.Plan, r keys.Resolver) (*Outcome, error)
}

// New returns the aggregator registered under name: "local" or "channel".
func New(name string, batchSize, depth int) (Aggregator, error) {
	switch name {
	case "", "local":
		return LocalMerge{}, nil
	case "channel":
		return ChannelConsumer{BatchSize: batchSize, Depth: depth}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (use local or channel)", name)
}

// emitFunc receives one accepted record.
type emitFunc func(id uint64, key []byte, v int64) error

// checkEvery is how many records a worker scans between looks at ctx.
const checkEvery = 1 << 14

var errAborted = errors.New("aborted after a fault in another worker")

// consume scans rg and hands every record the resolver accepts to emit.
// Values are parsed before the resolver runs so dropped records are still
// validated.
func consume(ctx context.Context, data []byte, rg chunk.Range, r keys.Resolver, emit emitFunc) (rows, dropped int64, err error) {
	s := scan.New(data, rg)
	for {
		at := s.Offset()
		key, value, err := s.Next()
		if err == io.EOF {
			return rows, dropped, nil
		}
		if err != nil {
			return rows, dropped, err
		}
		rows++

		v, err := fixed.Parse(value)
		if err != nil {
			return rows, dropped, fmt.Errorf("offset %d: value %q: %w", at, value, err)
		}

		id, ok, err := r.Resolve(key)
		if err != nil {
			return rows, dropped, fmt.Errorf("offset %d: %w", at, err)
		}
		if !ok {
			dropped++
		} else if err := emit(id, key, v); err != nil {
			return rows, dropped, fmt.Errorf("offset %d: %w", at, err)
		}

		if rows%checkEvery == 0 && ctx.Err() != nil {
			return rows, dropped, errAborted
		}
	}
}

func chunkErr(i int, rg chunk.Range, err error) error {
	return fmt.Errorf("chunk %d [%d,%d): %w", i, rg.Start, rg.End, err)
}
