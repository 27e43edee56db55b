package aggregate

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/example/brc/internal/chunk"
	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/stats"
)

func generate(lines, names int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, seed))
	var b bytes.Buffer
	for range lines {
		v := rng.IntN(1999) - 999
		sign := ""
		if v < 0 {
			sign, v = "-", -v
		}
		fmt.Fprintf(&b, "station %d;%s%d.%d\n", rng.IntN(names), sign, v/10, v%10)
	}
	return b.Bytes()
}

func snapshot(t *stats.Table) map[string]stats.Entry {
	out := make(map[string]stats.Entry)
	for _, e := range t.Entries() {
		out[e.Name] = e
	}
	return out
}

func strategies() []Aggregator {
	return []Aggregator{
		LocalMerge{},
		ChannelConsumer{},
		ChannelConsumer{BatchSize: 3, Depth: 1},
	}
}

func TestAggregate_StrategiesAgree(t *testing.T) {
	t.Parallel()

	data := generate(20_000, 50, 7)
	lines := int64(bytes.Count(data, []byte{'\n'}))

	var want map[string]stats.Entry
	for _, workers := range []int{1, 2, 8} {
		for _, agg := range strategies() {
			plan := chunk.Split(data, agg.Producers(workers))
			out, err := agg.Aggregate(data, plan, keys.Open{})
			if err != nil {
				t.Fatalf("%s w=%d: Aggregate error: %v", agg.Name(), workers, err)
			}
			if out.TotalRows() != lines {
				t.Errorf("%s w=%d: scanned %d rows, want %d", agg.Name(), workers, out.TotalRows(), lines)
			}

			got := snapshot(out.Table)
			if want == nil {
				want = got
				continue
			}
			if len(got) != len(want) {
				t.Fatalf("%s w=%d: %d keys, want %d", agg.Name(), workers, len(got), len(want))
			}
			for k, w := range want {
				if got[k] != w {
					t.Errorf("%s w=%d: %s = %+v, want %+v", agg.Name(), workers, k, got[k], w)
				}
			}
		}
	}
}

func TestAggregate_Closed(t *testing.T) {
	t.Parallel()

	data := []byte("A;10.0\nZ;1.0\nA;-5.0\nB;3.3\nZ;2.0\n")
	cat, err := keys.ParseCatalog([]byte("A;0\nB;0\nC;0\n"))
	if err != nil {
		t.Fatal(err)
	}
	closed, err := keys.NewClosed(cat, keys.DropUnknown)
	if err != nil {
		t.Fatal(err)
	}

	for _, agg := range strategies() {
		t.Run(agg.Name(), func(t *testing.T) {
			t.Parallel()

			out, err := agg.Aggregate(data, chunk.Split(data, 2), closed)
			if err != nil {
				t.Fatalf("Aggregate error: %v", err)
			}
			if out.TotalRows() != 5 || out.TotalDropped() != 2 {
				t.Errorf("rows=%d dropped=%d, want 5 and 2", out.TotalRows(), out.TotalDropped())
			}
			got := snapshot(out.Table)
			if len(got) != 2 {
				t.Fatalf("observed keys = %v, want A and B only", got)
			}
			if a := got["A"]; a.Count != 2 || a.Min != -50 || a.Max != 100 || a.Sum != 50 {
				t.Errorf("A = %+v", a)
			}
			if out.Table.Len() != 3 {
				t.Errorf("table holds %d keys, want the 3 catalog keys", out.Table.Len())
			}
		})
	}
}

func TestAggregate_FormatFault(t *testing.T) {
	t.Parallel()

	good := generate(50_000, 10, 3)
	bad := append(append([]byte{}, good...), "C;abc\n"...)
	bad = append(bad, good...)

	for _, agg := range strategies() {
		for _, workers := range []int{1, 4} {
			t.Run(fmt.Sprintf("%s/w=%d", agg.Name(), workers), func(t *testing.T) {
				t.Parallel()

				out, err := agg.Aggregate(bad, chunk.Split(bad, workers), keys.Open{})
				if !errors.Is(err, fault.ErrMalformedValue) {
					t.Fatalf("Aggregate error = %v, want ErrMalformedValue", err)
				}
				if out != nil {
					t.Error("a failed aggregation returned a partial outcome")
				}
				if !strings.Contains(err.Error(), `"abc"`) {
					t.Errorf("error %q does not name the bad value", err)
				}
			})
		}
	}
}

func TestAggregate_UnknownKeyFault(t *testing.T) {
	t.Parallel()

	cat, err := keys.ParseCatalog([]byte("A;0\n"))
	if err != nil {
		t.Fatal(err)
	}
	closed, err := keys.NewClosed(cat, keys.FailUnknown)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("A;1.0\nB;2.0\n")

	for _, agg := range strategies() {
		_, err := agg.Aggregate(data, chunk.Split(data, 1), closed)
		if !errors.Is(err, fault.ErrUnknownKey) {
			t.Errorf("%s: error = %v, want ErrUnknownKey", agg.Name(), err)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	for _, agg := range strategies() {
		out, err := agg.Aggregate(nil, chunk.Split(nil, 4), keys.Open{})
		if err != nil {
			t.Fatalf("%s: Aggregate(empty) error: %v", agg.Name(), err)
		}
		if out.Table == nil || out.Table.Len() != 0 || out.TotalRows() != 0 {
			t.Errorf("%s: empty input produced %+v", agg.Name(), out)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"local", "channel"} {
		agg, err := New(name, 0, 0)
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if agg.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, agg.Name())
		}
	}
	if _, err := New("async", 0, 0); err == nil {
		t.Error("New(async) should fail")
	}
}

func TestProducers(t *testing.T) {
	t.Parallel()

	if got := (LocalMerge{}).Producers(8); got != 8 {
		t.Errorf("LocalMerge.Producers(8) = %d", got)
	}
	if got := (ChannelConsumer{}).Producers(8); got != 7 {
		t.Errorf("ChannelConsumer.Producers(8) = %d", got)
	}
	if got := (ChannelConsumer{}).Producers(1); got != 1 {
		t.Errorf("ChannelConsumer.Producers(1) = %d", got)
	}
}
