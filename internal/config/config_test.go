package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/keys"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]string{"measurements.txt"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Input != "measurements.txt" {
		t.Errorf("Input = %q", cfg.Input)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if cfg.Strategy != "local" || cfg.Unknown != "drop" || !cfg.Sorted {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]string{
		"-input", "in.txt", "-workers", "3", "-strategy", "channel",
		"-batch", "16", "-depth", "4", "-sort=false", "-unknown", "fail", "-verify",
	}, io.Discard)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Input != "in.txt" || cfg.Workers != 3 || cfg.Strategy != "channel" ||
		cfg.BatchSize != 16 || cfg.Depth != 4 || cfg.Sorted || cfg.Unknown != "fail" || !cfg.Verify {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no input", nil, ErrUsage},
		{"zero workers", []string{"-workers", "0", "x"}, fault.ErrWorkerCount},
		{"too many workers", []string{"-workers", "100000", "x"}, fault.ErrResource},
		{"strategy", []string{"-strategy", "async", "x"}, ErrUsage},
		{"policy", []string{"-unknown", "keep", "x"}, ErrUsage},
		{"batch", []string{"-batch", "0", "x"}, ErrUsage},
		{"depth", []string{"-depth", "-1", "x"}, ErrUsage},
		{"profile", []string{"-profile", "block", "x"}, ErrUsage},
		{"bad flag", []string{"-nope"}, ErrUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(tt.args, io.Discard); !errors.Is(err, tt.want) {
				t.Errorf("Parse(%v) error = %v, want %v", tt.args, err, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Input = "x"
	cfg.Strategy = "channel"
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options error: %v", err)
	}
	if opts.Aggregator.Name() != "channel" || opts.Resolver != nil {
		t.Errorf("unexpected options: %+v", opts)
	}

	path := filepath.Join(t.TempDir(), "stations.csv")
	if err := os.WriteFile(path, []byte("Oslo;5.7\nLima;19.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Catalog = path
	opts, err = cfg.Options()
	if err != nil {
		t.Fatalf("Options with catalog error: %v", err)
	}
	closed, ok := opts.Resolver.(*keys.Closed)
	if !ok || closed.Len() != 2 {
		t.Errorf("Resolver = %#v, want a closed resolver over 2 keys", opts.Resolver)
	}

	cfg.Catalog = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := cfg.Options(); !errors.Is(err, fault.ErrIO) {
		t.Errorf("missing catalog error = %v, want I/O fault", err)
	}
}
