// Package engine coordinates one aggregation run: map the input, plan the
// chunks, aggregate them in parallel and build the report.
package engine

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/brc/internal/aggregate"
	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/report"
	"github.com/example/brc/internal/source"
)

// MaxWorkers bounds the worker count a run accepts.
const MaxWorkers = 4096

// Options configure a run. The zero value runs the local-merge shape with
// open key discovery on every CPU.
type Options struct {
	Workers    int
	Aggregator aggregate.Aggregator
	Resolver   keys.Resolver
	Sorted     bool
	Logger     *log.Logger
}

// Timings are the wall-clock durations of each phase.
type Timings struct {
	Map       time.Duration
	Plan      time.Duration
	Aggregate time.Duration
	Report    time.Duration
}

// Total is the sum of every phase.
func (t Timings) Total() time.Duration {
	return t.Map + t.Plan + t.Aggregate + t.Report
}

// Result is a complete run. It is only returned when every record was
// accounted for.
type Result struct {
	Report  *report.Report
	Plan    chunk.Plan
	Rows    []int64
	Dropped []int64
	Bytes   int
	Timings Timings
}

// TotalRows is the number of records scanned.
func (r *Result) TotalRows() int64 {
	var n int64
	for _, x := range r.Rows {
		n += x
	}
	return n
}

// TotalDropped is the number of records skipped by the resolver.
func (r *Result) TotalDropped() int64 {
	var n int64
	for _, x := range r.Dropped {
		n += x
	}
	return n
}

func (o Options) withDefaults() (Options, error) {
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return o, fmt.Errorf("%d workers (allowed 1..%d): %w", o.Workers, MaxWorkers, fault.ErrWorkerCount)
	}
	if o.Aggregator == nil {
		o.Aggregator = aggregate.LocalMerge{}
	}
	if o.Resolver == nil {
		o.Resolver = keys.Open{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o, nil
}

// Run maps path and aggregates it.
func Run(path string, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mapped := time.Since(start)
	opts.Logger.Printf("[SOURCE] Mapped %s (%s) in %v", path, humanize.Bytes(uint64(f.Len())), mapped)

	res, err := run(f.Data, opts)
	if err != nil {
		return nil, err
	}
	res.Timings.Map = mapped
	return res, nil
}

// RunBytes aggregates an in-memory buffer.
func RunBytes(data []byte, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return run(data, opts)
}

func run(data []byte, opts Options) (*Result, error) {
	lg := opts.Logger
	res := &Result{Bytes: len(data)}

	start := time.Now()
	res.Plan = chunk.Split(data, opts.Aggregator.Producers(opts.Workers))
	res.Timings.Plan = time.Since(start)
	lg.Printf("[ENGINE] Planned %d chunks for %d workers (strategy: %s)",
		len(res.Plan), opts.Workers, opts.Aggregator.Name())

	start = time.Now()
	out, err := opts.Aggregator.Aggregate(data, res.Plan, opts.Resolver)
	if err != nil {
		lg.Printf("[ENGINE] Aggregation failed: %v", err)
		return nil, err
	}
	res.Timings.Aggregate = time.Since(start)
	res.Rows, res.Dropped = out.Rows, out.Dropped
	lg.Printf("[ENGINE] Aggregated %s rows (%s dropped) in %v",
		humanize.Comma(out.TotalRows()), humanize.Comma(out.TotalDropped()), res.Timings.Aggregate)

	start = time.Now()
	res.Report = report.FromTable(out.Table, opts.Sorted)
	res.Timings.Report = time.Since(start)
	lg.Printf("[ENGINE] Built report with %d keys in %v", res.Report.Len(), res.Timings.Report)

	return res, nil
}
