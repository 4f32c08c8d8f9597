package jsonl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type row struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	in := []row{{ID: "a", Count: 1}, {ID: "b", Count: 2}}

	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Read[row](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestWriteDeterministic(t *testing.T) {
	dir := t.TempDir()
	in := []row{{ID: "a", Count: 1}}

	first := filepath.Join(dir, "a.jsonl")
	second := filepath.Join(dir, "b.jsonl")
	if err := Write(first, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(second, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Fatal("identical rows must serialize identically")
	}
}

func TestReadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	content := "{\"id\":\"a\",\"count\":1}\n\n{\"id\":\"b\",\"count\":2}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := Read[row](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
}

func TestReadReportsLineNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	content := "{\"id\":\"a\",\"count\":1}\n{broken\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Read[row](path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("error must name the line: %v", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read[row](filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
