package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/stats"
)

// LocalMerge gives each worker a private table and merges them after every
// worker has finished. Nothing is shared while scanning.
type LocalMerge struct{}

func (LocalMerge) Name() string { return "local" }

func (LocalMerge) Producers(workers int) int { return max(workers, 1) }

func (LocalMerge) Aggregate(data []byte, plan chunk.Plan, r keys.Resolver) (*Outcome, error) {
	out := &Outcome{
		Rows:    make([]int64, len(plan)),
		Dropped: make([]int64, len(plan)),
	}
	tables := make([]*stats.Table, len(plan))

	g, ctx := errgroup.WithContext(context.Background())
	for i, rg := range plan {
		g.Go(func() error {
			t := r.NewTable()
			rows, dropped, err := consume(ctx, data, rg, r, t.Observe)
			out.Rows[i], out.Dropped[i] = rows, dropped
			if err != nil {
				return chunkErr(i, rg, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(tables) == 0 {
		out.Table = r.NewTable()
		return out, nil
	}
	merged := tables[0]
	for _, t := range tables[1:] {
		if err := merged.Merge(t); err != nil {
			return nil, err
		}
	}
	out.Table = merged
	return out, nil
}
