package types

import (
	"io"
	"os"
	"path"
	"strings"
	"testing"
)

// captureStdout returns what f prints to standard output
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	f()
	w.Close()
	bs, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return string(bs)
}

func TestPlotterReportsDirectoryFailure(t *testing.T) {
	file := path.Join(t.TempDir(), "plots")
	if err := os.WriteFile(file, []byte("not a directory"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plotPath := path.Join(file, "sub")

	out := captureStdout(t, func() {
		RewardPlotter(plotPath, 2)
		PricePlotter(plotPath)
	})
	if n := strings.Count(out, "failed to create plot directory"); n != 2 {
		t.Errorf("expected both plotters to report the failure, got %q", out)
	}
}
