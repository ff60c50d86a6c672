package segment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"harshagw/wordfreq/internal/counter"
	"harshagw/wordfreq/internal/freq"
)

// countText runs the counting pipeline over text.
func countText(t *testing.T, text string) *freq.Table {
	t.Helper()
	tbl, err := counter.Count(strings.NewReader(text), counter.DefaultConfig())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return tbl
}

func TestBuilder_Add_ReturnsTextNum(t *testing.T) {
	b := NewBuilder()

	n0 := b.Add("a.txt", countText(t, "first"))
	n1 := b.Add("b.txt", countText(t, "second"))

	if n0 != 0 || n1 != 1 {
		t.Errorf("expected textNums 0,1 got %d,%d", n0, n1)
	}
	if b.NumTexts() != 2 {
		t.Errorf("expected 2 texts, got %d", b.NumTexts())
	}
}

func TestBuilder_Add_RecordsCounts(t *testing.T) {
	b := NewBuilder()
	b.Add("a.txt", countText(t, "Go go GO stop"))

	postings := b.Words["go"]
	if len(postings) != 1 || postings[0].Count != 3 {
		t.Errorf("go: got %v, want one posting with count 3", postings)
	}
	info := b.Texts[0]
	if info.Words != 4 || info.Distinct != 2 {
		t.Errorf("text info: %+v", info)
	}
}

func TestBuilder_Remove(t *testing.T) {
	b := NewBuilder()
	b.Add("a.txt", countText(t, "hello"))
	b.Add("b.txt", countText(t, "hello world"))

	if !b.Remove("a.txt") {
		t.Error("Remove should return true")
	}
	if b.Remove("a.txt") {
		t.Error("second Remove should return false")
	}
	if b.Remove("missing.txt") {
		t.Error("Remove of unknown text should return false")
	}
	if !b.IsDeleted(0) || b.IsDeleted(1) {
		t.Error("wrong deletion state")
	}
	if b.NumTexts() != 1 || b.TotalTexts() != 2 {
		t.Errorf("NumTexts %d TotalTexts %d", b.NumTexts(), b.TotalTexts())
	}
	if got := b.Lookup("hello"); len(got) != 1 || got[0].TextNum != 1 {
		t.Errorf("Lookup should skip deleted text, got %v", got)
	}
}

func TestBuilder_Build_WritesFile(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()
	b.Add("a.txt", countText(t, "hello world"))

	path, err := b.Build(dir, "000000000001")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if path != filepath.Join(dir, "000000000001.seg") {
		t.Errorf("unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("segment file missing: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}
