// Package config holds the command-line configuration of an aggregation run.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"

	"github.com/example/brc/internal/aggregate"
	"github.com/example/brc/internal/engine"
	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/keys"
)

// Config is the parsed command line.
type Config struct {
	Input      string
	Catalog    string
	Workers    int
	Strategy   string
	Unknown    string
	BatchSize  int
	Depth      int
	Sorted     bool
	Output     string
	Verify     bool
	Profile    string
	ProfileDir string
	Quiet      bool
}

// ErrUsage marks configuration errors.
var ErrUsage = errors.New("usage")

// Default returns the configuration used when no flag is given.
func Default() Config {
	return Config{
		Workers:    runtime.NumCPU(),
		Strategy:   "local",
		Unknown:    "drop",
		BatchSize:  aggregate.DefaultBatchSize,
		Sorted:     true,
		ProfileDir: ".",
	}
}

// Parse reads args (without the program name). The input may be given with
// -input or as the first positional argument.
func Parse(args []string, stderr io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("brc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Input, "input", "", "Path to the measurements file")
	fs.StringVar(&cfg.Catalog, "catalog", "", "Optional key catalog (<key>;<baseline> lines); enables closed key resolution")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of worker goroutines")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "Aggregation shape: local or channel")
	fs.StringVar(&cfg.Unknown, "unknown", cfg.Unknown, "Records with keys missing from the catalog: drop or fail")
	fs.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Records per batch for the channel strategy")
	fs.IntVar(&cfg.Depth, "depth", 0, "Channel capacity in batches (default 2 per producer)")
	fs.BoolVar(&cfg.Sorted, "sort", cfg.Sorted, "Order report rows by key")
	fs.StringVar(&cfg.Output, "output", "", "Write the report here instead of stdout")
	fs.BoolVar(&cfg.Verify, "verify", false, "Check the report against a single-threaded reference pass")
	fs.StringVar(&cfg.Profile, "profile", "", "Profile the run: cpu, mem or trace")
	fs.StringVar(&cfg.ProfileDir, "profile-dir", cfg.ProfileDir, "Directory for profile output")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Suppress log output")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if cfg.Input == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	return cfg, cfg.Validate()
}

// Validate checks cfg for unusable values.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: an input file is required", ErrUsage)
	}
	if c.Workers < 1 || c.Workers > engine.MaxWorkers {
		return fmt.Errorf("%d workers (allowed 1..%d): %w", c.Workers, engine.MaxWorkers, fault.ErrWorkerCount)
	}
	if _, err := aggregate.New(c.Strategy, c.BatchSize, c.Depth); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if _, err := keys.ParseUnknownPolicy(c.Unknown); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", ErrUsage)
	}
	if c.Depth < 0 {
		return fmt.Errorf("%w: depth must not be negative", ErrUsage)
	}
	switch c.Profile {
	case "", "cpu", "mem", "trace":
	default:
		return fmt.Errorf("%w: unknown profile %q", ErrUsage, c.Profile)
	}
	return nil
}

// Options builds engine options from c, loading the catalog if one is set.
func (c Config) Options() (engine.Options, error) {
	agg, err := aggregate.New(c.Strategy, c.BatchSize, c.Depth)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		Workers:    c.Workers,
		Aggregator: agg,
		Sorted:     c.Sorted,
	}
	if c.Catalog == "" {
		return opts, nil
	}

	policy, err := keys.ParseUnknownPolicy(c.Unknown)
	if err != nil {
		return engine.Options{}, err
	}
	cat, err := keys.LoadCatalog(c.Catalog)
	if err != nil {
		return engine.Options{}, err
	}
	closed, err := keys.NewClosed(cat, policy)
	if err != nil {
		return engine.Options{}, err
	}
	opts.Resolver = closed
	return opts, nil
}
