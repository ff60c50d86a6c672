package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// makeSegment builds and opens a segment from name -> text pairs, added in
// name order.
func makeSegment(t *testing.T, texts map[string]string) *Segment {
	t.Helper()
	dir := t.TempDir()
	b := NewBuilder()

	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.Add(name, countText(t, texts[name]))
	}

	segPath, err := b.Build(dir, "test")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	seg, err := Open(segPath, "test")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { seg.Close() })
	return seg
}

func TestSegment_Lookup(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "the cat and the dog",
		"b": "the cat's hat",
	})

	postings, err := seg.Lookup("the", nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := []Posting{{TextNum: 0, Count: 2}, {TextNum: 1, Count: 1}}
	if !slices.Equal(postings, want) {
		t.Errorf("got %v, want %v", postings, want)
	}

	// "hat" occurs once in one text and is stored inline.
	postings, err = seg.Lookup("hat", nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(postings, []Posting{{TextNum: 1, Count: 1}}) {
		t.Errorf("hat: got %v", postings)
	}
}

func TestSegment_Lookup_Missing(t *testing.T) {
	seg := makeSegment(t, map[string]string{"a": "hello"})

	postings, err := seg.Lookup("missing", nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("expected no postings, got %v", postings)
	}
}

func TestSegment_Lookup_ExcludesDeleted(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "hello hello",
		"b": "hello",
		"c": "solo",
	})

	postings, _ := seg.Lookup("hello", newTestBitmap(0))
	if !slices.Equal(postings, []Posting{{TextNum: 1, Count: 1}}) {
		t.Errorf("got %v", postings)
	}
	postings, _ = seg.Lookup("solo", newTestBitmap(2))
	if len(postings) != 0 {
		t.Errorf("one-hit posting of deleted text returned: %v", postings)
	}
}

func TestSegment_TextsWith(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "red green",
		"b": "green blue blue",
		"c": "green",
	})

	bm, err := seg.TextsWith("green", newTestBitmap(2))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(bm.ToArray(), []uint32{0, 1}) {
		t.Errorf("green: got %v", bm.ToArray())
	}
	bm, _ = seg.TextsWith("red", nil)
	if !slices.Equal(bm.ToArray(), []uint32{0}) {
		t.Errorf("red: got %v", bm.ToArray())
	}
	bm, _ = seg.TextsWith("purple", nil)
	if !bm.IsEmpty() {
		t.Errorf("purple: got %v", bm.ToArray())
	}
}

func TestSegment_ForEachWord(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "b a c a",
		"b": "c",
	})

	var words []string
	totals := make(map[string]uint64)
	err := seg.ForEachWord(newTestBitmap(1), func(word string, postings []Posting) error {
		words = append(words, word)
		for _, p := range postings {
			totals[word] += p.Count
		}
		return nil
	})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(words, []string{"a", "b", "c"}) {
		t.Errorf("words: got %v", words)
	}
	if totals["a"] != 2 || totals["c"] != 1 {
		t.Errorf("totals: got %v", totals)
	}
}

func TestSegment_PrefixWords(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "program programmer programming progress project",
	})

	words, err := seg.PrefixWords("program")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(words, []string{"program", "programmer", "programming"}) {
		t.Errorf("got %v", words)
	}
}

func TestSegment_MatchingWords(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "cat cot cut coat dog",
	})

	words, err := seg.MatchingWords("c.t")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(words, []string{"cat", "cot", "cut"}) {
		t.Errorf("got %v", words)
	}

	if _, err := seg.MatchingWords("("); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestSegment_FuzzyWords(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "hello hallo help world",
	})

	words, err := seg.FuzzyWords("hello", 1)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !slices.Equal(words, []string{"hallo", "hello"}) {
		t.Errorf("got %v", words)
	}
}

func TestSegment_TextMetadata(t *testing.T) {
	seg := makeSegment(t, map[string]string{
		"a": "one two two",
		"b": "",
	})

	if seg.NumTexts() != 2 || seg.NumWords() != 2 || seg.TotalWords() != 3 {
		t.Errorf("texts %d words %d total %d", seg.NumTexts(), seg.NumWords(), seg.TotalWords())
	}
	if name, ok := seg.TextName(1); !ok || name != "b" {
		t.Errorf("TextName(1) = %q, %v", name, ok)
	}
	if _, ok := seg.TextName(2); ok {
		t.Error("TextName out of range should fail")
	}

	info, err := seg.LoadText(0)
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if info.Name != "a" || info.Words != 3 || info.Distinct != 2 {
		t.Errorf("LoadText(0) = %+v", info)
	}

	bm := seg.TextNumbers([]string{"b", "zzz"})
	if !slices.Equal(bm.ToArray(), []uint32{1}) {
		t.Errorf("TextNumbers: got %v", bm.ToArray())
	}
}

func TestSegment_LoadText_ManyChunks(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()
	n := ChunkSize + 5
	for i := 0; i < n; i++ {
		b.Add(fmt.Sprintf("t%04d", i), countText(t, "word"))
	}
	path, err := b.Build(dir, "big")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seg, err := Open(path, "big")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer seg.Close()

	info, err := seg.LoadText(uint64(n - 1))
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if info.Name != fmt.Sprintf("t%04d", n-1) {
		t.Errorf("got %+v", info)
	}
}

func TestSegment_EmptyDictionary(t *testing.T) {
	seg := makeSegment(t, map[string]string{"a": "   "})

	postings, err := seg.Lookup("anything", nil)
	if err != nil || len(postings) != 0 {
		t.Errorf("Lookup on empty segment: %v, %v", postings, err)
	}
	words, err := seg.PrefixWords("a")
	if err != nil || len(words) != 0 {
		t.Errorf("PrefixWords on empty segment: %v, %v", words, err)
	}
}

func TestOpen_RejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	small := filepath.Join(dir, "small.seg")
	os.WriteFile(small, []byte("WFQ"), 0644)
	if _, err := Open(small, "small"); err == nil {
		t.Error("expected error for truncated file")
	}

	bad := filepath.Join(dir, "bad.seg")
	os.WriteFile(bad, make([]byte, 64), 0644)
	if _, err := Open(bad, "bad"); err == nil {
		t.Error("expected error for bad magic")
	}
}
