package aggregate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/keys"
)

// Defaults for ChannelConsumer.
const (
	DefaultBatchSize = 1024
	depthPerProducer = 2
)

type observation struct {
	id  uint64
	key []byte
	v   int64
}

type batch []observation

// ChannelConsumer runs scanning producers that send batches of parsed
// observations over a bounded channel to a single consumer, which owns the
// table exclusively. Closing the channel ends the consumer.
type ChannelConsumer struct {
	// BatchSize is the number of observations per send.
	BatchSize int
	// Depth bounds the channel; full channels block producers.
	Depth int
}

func (ChannelConsumer) Name() string { return "channel" }

// Producers reserves one of the workers for the consumer.
func (ChannelConsumer) Producers(workers int) int { return max(workers-1, 1) }

func (c ChannelConsumer) Aggregate(data []byte, plan chunk.Plan, r keys.Resolver) (*Outcome, error) {
	size := c.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	depth := c.Depth
	if depth < 1 {
		depth = depthPerProducer * max(len(plan), 1)
	}

	out := &Outcome{
		Rows:    make([]int64, len(plan)),
		Dropped: make([]int64, len(plan)),
	}

	pool := sync.Pool{New: func() any {
		b := make(batch, 0, size)
		return &b
	}}
	batches := make(chan *batch, depth)

	parent, abort := context.WithCancel(context.Background())
	defer abort()
	g, ctx := errgroup.WithContext(parent)

	for i, rg := range plan {
		g.Go(func() error {
			b := pool.Get().(*batch)
			emit := func(id uint64, key []byte, v int64) error {
				*b = append(*b, observation{id: id, key: key, v: v})
				if len(*b) == size {
					batches <- b
					b = pool.Get().(*batch)
				}
				return nil
			}
			rows, dropped, err := consume(ctx, data, rg, r, emit)
			out.Rows[i], out.Dropped[i] = rows, dropped
			if err != nil {
				return chunkErr(i, rg, err)
			}
			if len(*b) > 0 {
				batches <- b
			}
			return nil
		})
	}

	produced := make(chan error, 1)
	go func() {
		produced <- g.Wait()
		close(batches)
	}()

	table := r.NewTable()
	var applyErr error
	for b := range batches {
		if applyErr == nil {
			for _, o := range *b {
				if err := table.Observe(o.id, o.key, o.v); err != nil {
					applyErr = err
					abort()
					break
				}
			}
		}
		*b = (*b)[:0]
		pool.Put(b)
	}

	// producers stopped by abort report errAborted; the consumer's error wins
	err := <-produced
	if applyErr != nil {
		return nil, applyErr
	}
	if err != nil {
		return nil, err
	}
	out.Table = table
	return out, nil
}
