//go:build unix

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const profileChildEnv = "BRC_PROFILE_CHILD_DIR"

func TestStartProfile_InterruptNotSwallowed(t *testing.T) {
	if dir := os.Getenv(profileChildEnv); dir != "" {
		startProfile("cpu", dir)
		fmt.Println("ready")
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	t.Parallel()

	cmd := exec.Command(os.Args[0], "-test.run=^TestStartProfile_InterruptNotSwallowed$")
	cmd.Env = append(os.Environ(), profileChildEnv+"="+t.TempDir())
	out, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start child: %v", err)
	}

	sc := bufio.NewScanner(out)
	for sc.Scan() && sc.Text() != "ready" {
	}
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Wait(); err == nil {
		t.Error("profiled process exited 0 after an interrupt")
	}
}

func TestStartProfile(t *testing.T) {
	t.Parallel()

	if startProfile("", t.TempDir()) != nil {
		t.Error("empty mode started a profile")
	}

	dir := t.TempDir()
	p := startProfile("mem", dir)
	if p == nil {
		t.Fatal("mem mode did not start a profile")
	}
	p.Stop()
	if _, err := os.Stat(filepath.Join(dir, "mem.pprof")); err != nil {
		t.Errorf("mem profile not written: %v", err)
	}
}
