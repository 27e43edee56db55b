// Command brcgen writes a synthetic measurements file and, optionally, the
// catalog it was drawn from.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/example/brc/internal/gen"
	"github.com/example/brc/internal/keys"
)

var (
	rows       = flag.Int64("rows", 1_000_000, "Number of records to generate")
	output     = flag.String("output", "measurements.txt", "Output measurements file path")
	catalogIn  = flag.String("catalog", "", "Draw keys from this catalog instead of synthetic stations")
	catalogOut = flag.String("catalog-out", "", "Also write the catalog used to this path")
	stations   = flag.Int("stations", 413, "Number of synthetic stations when no catalog is given")
	seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	quiet      = flag.Bool("quiet", false, "Hide the progress bar")
)

func main() {
	flag.Parse()
	log.SetPrefix("[GEN] ")

	cat, err := loadCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	g, err := gen.New(cat, *seed)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	if *catalogOut != "" {
		if err := writeTo(*catalogOut, func(f *os.File) error { return gen.WriteCatalog(f, cat) }); err != nil {
			log.Fatalf("Failed to write catalog: %v", err)
		}
		log.Printf("Wrote catalog of %d stations to %s", len(cat.Stations), *catalogOut)
	}

	start := time.Now()
	var progress func(int)
	if !*quiet {
		bar := progressbar.Default(*rows, "generating")
		progress = func(n int) { _ = bar.Add(n) }
		defer bar.Finish()
	}
	err = writeTo(*output, func(f *os.File) error { return g.Write(f, *rows, progress) })
	if err != nil {
		log.Fatalf("Failed to write measurements: %v", err)
	}

	if fi, err := os.Stat(*output); err == nil {
		log.Printf("Wrote %s rows (%s) to %s in %v",
			humanize.Comma(*rows), humanize.Bytes(uint64(fi.Size())), *output, time.Since(start).Round(time.Millisecond))
	}
}

func loadCatalog() (*keys.Catalog, error) {
	if *catalogIn != "" {
		return keys.LoadCatalog(*catalogIn)
	}
	return gen.Synthetic(*stations, *seed), nil
}

func writeTo(path string, fn func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
