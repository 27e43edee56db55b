// Package gen writes synthetic measurement datasets.
package gen

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/example/brc/internal/fixed"
	"github.com/example/brc/internal/keys"
)

// Spread is the standard deviation of generated values around a station's
// baseline.
const Spread = 10.0

// Generator draws records from a catalog of stations.
type Generator struct {
	stations []keys.Station
	rng      *rand.Rand
}

// New returns a generator over cat seeded with seed.
func New(cat *keys.Catalog, seed uint64) (*Generator, error) {
	if len(cat.Stations) == 0 {
		return nil, fmt.Errorf("catalog has no stations")
	}
	return &Generator{
		stations: cat.Stations,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Synthetic builds a catalog of n stations with random baselines.
func Synthetic(n int, seed uint64) *keys.Catalog {
	rng := rand.New(rand.NewPCG(seed, 1))
	cat := &keys.Catalog{Stations: make([]keys.Station, n)}
	for i := range cat.Stations {
		cat.Stations[i] = keys.Station{
			Name:     fmt.Sprintf("station_%05d", i),
			Baseline: math.Round((rng.Float64()*60-20)*10) / 10,
		}
	}
	return cat
}

// Measurement returns one value in tenths for s, drawn from
// Normal(s.Baseline, Spread) without clamping.
func (g *Generator) Measurement(s keys.Station) int64 {
	v := g.rng.NormFloat64()*Spread + s.Baseline
	return int64(math.Round(v * fixed.Scale))
}

// AppendRecord appends one random "<key>;<value>\n" record.
func (g *Generator) AppendRecord(dst []byte) []byte {
	s := g.stations[g.rng.IntN(len(g.stations))]
	dst = append(dst, s.Name...)
	dst = append(dst, ';')
	dst = fixed.Append(dst, g.Measurement(s))
	return append(dst, '\n')
}

// Write writes rows records to w. progress, if set, is called with the
// number of rows written since its previous call.
func (g *Generator) Write(w io.Writer, rows int64, progress func(n int)) error {
	const step = 1 << 16

	bw := bufio.NewWriterSize(w, 1<<20)
	line := make([]byte, 0, 128)
	pending := 0
	for i := int64(0); i < rows; i++ {
		line = g.AppendRecord(line[:0])
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if pending++; pending == step && progress != nil {
			progress(pending)
			pending = 0
		}
	}
	if progress != nil && pending > 0 {
		progress(pending)
	}
	return bw.Flush()
}

// WriteCatalog writes cat in the catalog file format.
func WriteCatalog(w io.Writer, cat *keys.Catalog) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# station;baseline")
	for _, s := range cat.Stations {
		fmt.Fprintf(bw, "%s;%.1f\n", s.Name, s.Baseline)
	}
	return bw.Flush()
}
