package util

import (
	"os"
	"path"
	"testing"
)

func TestAppendToFile(t *testing.T) {
	p := path.Join(t.TempDir(), "nested", "traces.jsonl")
	if err := AppendToFile(p, "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AppendToFile(p, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(bs) != "a\nb\nc\n" {
		t.Errorf("unexpected content %q", string(bs))
	}
}
