// Command brc computes per-key min, max and mean over a "<key>;<value>"
// measurements file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/example/brc/internal/config"
	"github.com/example/brc/internal/engine"
	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/keys"
	"github.com/example/brc/internal/reference"
	"github.com/example/brc/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Usage: brc [flags] <measurements-file>\n%v\n", err)
		if errors.Is(err, config.ErrUsage) {
			return 1
		}
		return fault.Classify(err).ExitStatus()
	}

	logOut := stderr
	if cfg.Quiet {
		logOut = io.Discard
	}
	runID := uuid.New().String()[:8]
	logger := log.New(logOut, "[brc "+runID+"] ", log.LstdFlags|log.Lmicroseconds)

	if err := execute(cfg, logger, stdout); err != nil {
		code := fault.Classify(err)
		logger.Printf("[MAIN] Run failed (%s): %v", code, err)
		fmt.Fprintf(stderr, "brc: %v\n", err)
		return code.ExitStatus()
	}
	return 0
}

func execute(cfg config.Config, logger *log.Logger, stdout io.Writer) error {
	if p := startProfile(cfg.Profile, cfg.ProfileDir); p != nil {
		defer p.Stop()
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Logger = logger

	res, err := engine.Run(cfg.Input, opts)
	if err != nil {
		return err
	}
	logger.Printf("[MAIN] Done in %v (map %v, plan %v, aggregate %v, report %v)",
		res.Timings.Total(), res.Timings.Map, res.Timings.Plan, res.Timings.Aggregate, res.Timings.Report)

	if cfg.Verify {
		if err := verify(cfg.Input, opts.Resolver, res.Report, logger); err != nil {
			return err
		}
	}

	return write(cfg.Output, stdout, res.Report)
}

// startProfile starts the named profile writing into dir, or returns nil
// when mode is empty. An interrupt still terminates the process; pkg/profile
// would otherwise catch it and exit 0.
func startProfile(mode, dir string) interface{ Stop() } {
	var kind func(*profile.Profile)
	switch mode {
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfile
	case "trace":
		kind = profile.TraceProfile
	default:
		return nil
	}
	return profile.Start(kind, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
}

// verify compares got with a single-threaded pass over input that keeps
// the same keys r does. A nil r keeps every key.
func verify(input string, r keys.Resolver, got *report.Report, logger *log.Logger) error {
	want, err := reference.Aggregate(input, true, reference.Resolved(r))
	if err != nil {
		return fmt.Errorf("reference pass: %w", err)
	}

	sorted := &report.Report{Rows: append([]report.Row(nil), got.Rows...)}
	sorted.Sort()
	if d := report.Diff(want.String(), sorted.String()); d != "" {
		return fmt.Errorf("%w: engine and reference disagree:\n%s", fault.ErrMismatch, d)
	}
	logger.Printf("[MAIN] Verified %d keys against the reference pass", want.Len())
	return nil
}

func write(path string, stdout io.Writer, r *report.Report) error {
	if path == "" {
		_, err := r.WriteTo(stdout)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fault.IO("create", path, err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return fault.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return fault.IO("close", path, err)
	}
	return nil
}
