package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"harshagw/wordfreq/internal/freq"
)

func newTestCorpus(t *testing.T, dir string) *Corpus {
	t.Helper()
	config := DefaultConfig(dir)
	config.FlushThreshold = 10000

	c, err := New(config)
	if err != nil {
		t.Fatalf("New corpus error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func addText(t *testing.T, c *Corpus, name, text string) {
	t.Helper()
	if err := c.Add(name, strings.NewReader(text)); err != nil {
		t.Fatalf("Add(%s) error: %v", name, err)
	}
}

func textNames(t *testing.T, c *Corpus) []string {
	t.Helper()
	texts, err := c.Texts()
	if err != nil {
		t.Fatalf("Texts error: %v", err)
	}
	names := make([]string, len(texts))
	for i, text := range texts {
		names[i] = text.Name
	}
	slices.Sort(names)
	return names
}

// wordCount sums the live counts of word across the snapshot.
func wordCount(t *testing.T, c *Corpus, word string) uint64 {
	t.Helper()
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}

	var total uint64
	for _, seg := range snap.Segments() {
		postings, err := seg.Lookup(word)
		if err != nil {
			t.Fatalf("Lookup error: %v", err)
		}
		for _, p := range postings {
			total += p.Count
		}
	}
	if b := snap.Builder(); b != nil {
		for _, p := range b.Lookup(word) {
			total += p.Count
		}
	}
	return total
}

func TestCorpus_AddAndFlush(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())

	addText(t, c, "a", "The cat and the dog.")
	addText(t, c, "b", "the cat's hat")

	if got := wordCount(t, c, "the"); got != 3 {
		t.Errorf("buffered: the = %d, want 3", got)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if c.NumSegments() != 1 {
		t.Fatalf("expected 1 segment, got %d", c.NumSegments())
	}
	if got := wordCount(t, c, "the"); got != 3 {
		t.Errorf("flushed: the = %d, want 3", got)
	}
	if got := wordCount(t, c, "cat"); got != 2 {
		t.Errorf("cat = %d, want 2", got)
	}

	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snap.TotalTexts() != 2 {
		t.Errorf("TotalTexts = %d, want 2", snap.TotalTexts())
	}
	words, err := snap.TotalWords()
	if err != nil {
		t.Fatalf("TotalWords error: %v", err)
	}
	if words != 8 {
		t.Errorf("TotalWords = %d, want 8", words)
	}
}

func TestCorpus_FlushEmpty(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if c.NumSegments() != 0 {
		t.Errorf("expected 0 segments, got %d", c.NumSegments())
	}
	if c.Epoch() != 0 {
		t.Errorf("expected epoch 0, got %d", c.Epoch())
	}
}

func TestCorpus_AutoFlush(t *testing.T) {
	config := DefaultConfig(t.TempDir())
	config.FlushThreshold = 2
	c, err := New(config)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer c.Close()

	addText(t, c, "a", "one")
	if c.NumSegments() != 0 {
		t.Fatalf("flushed too early")
	}
	addText(t, c, "b", "two")
	if c.NumSegments() != 1 {
		t.Errorf("expected automatic flush, got %d segments", c.NumSegments())
	}
}

func TestCorpus_AddReplaces(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())

	addText(t, c, "a", "apple apple")
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}

	addText(t, c, "a", "banana")
	if got := wordCount(t, c, "apple"); got != 0 {
		t.Errorf("replaced text still counted: apple = %d", got)
	}
	if got := wordCount(t, c, "banana"); got != 1 {
		t.Errorf("banana = %d, want 1", got)
	}

	// Replacing a buffered text hides the earlier buffered copy.
	addText(t, c, "a", "cherry")
	if got := wordCount(t, c, "banana"); got != 0 {
		t.Errorf("banana = %d, want 0", got)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if names := textNames(t, c); !slices.Equal(names, []string{"a"}) {
		t.Errorf("texts = %v, want [a]", names)
	}
	if got := wordCount(t, c, "cherry"); got != 1 {
		t.Errorf("cherry = %d, want 1", got)
	}
}

func TestCorpus_Remove(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())

	addText(t, c, "a", "red green")
	addText(t, c, "b", "green blue")
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	addText(t, c, "c", "green")

	if err := c.Remove("a"); err != nil {
		t.Fatalf("Remove(a) error: %v", err)
	}
	if err := c.Remove("c"); err != nil {
		t.Fatalf("Remove(c) error: %v", err)
	}
	if got := wordCount(t, c, "green"); got != 1 {
		t.Errorf("green = %d, want 1", got)
	}
	if names := textNames(t, c); !slices.Equal(names, []string{"b"}) {
		t.Errorf("texts = %v, want [b]", names)
	}

	if err := c.Remove("a"); !errors.Is(err, ErrTextNotFound) {
		t.Errorf("second Remove(a): got %v, want ErrTextNotFound", err)
	}
	if err := c.Remove("missing"); !errors.Is(err, ErrTextNotFound) {
		t.Errorf("Remove(missing): got %v, want ErrTextNotFound", err)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	segs, err := c.Segments()
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	if len(segs) != 1 || segs[0].NumDeleted != 1 {
		t.Errorf("segments = %+v, want one segment with one deletion", segs)
	}
}

func TestCorpus_SnapshotIsStable(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())
	addText(t, c, "a", "dog dog")

	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}

	addText(t, c, "b", "dog cat")
	if err := c.Remove("a"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	b := snap.Builder()
	postings := b.Lookup("dog")
	if len(postings) != 1 || postings[0].Count != 2 || b.Texts[postings[0].TextNum].Name != "a" {
		t.Errorf("snapshot dog postings: got %+v, want one posting of 2 from a", postings)
	}
	if got := b.Lookup("cat"); len(got) != 0 {
		t.Errorf("snapshot sees text added later: %+v", got)
	}
	if b.NumTexts() != 1 || snap.TotalTexts() != 1 {
		t.Errorf("snapshot texts: builder %d, total %d, want 1", b.NumTexts(), snap.TotalTexts())
	}

	if got := wordCount(t, c, "dog"); got != 1 {
		t.Errorf("live dog count: got %d, want 1", got)
	}
}

func TestCorpus_Reopen(t *testing.T) {
	dir := t.TempDir()

	c, err := New(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	addText(t, c, "a", "alpha beta")
	addText(t, c, "b", "beta gamma")
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if err := c.Remove("a"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	epoch := c.Epoch()
	if err := c.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	c = newTestCorpus(t, dir)
	if c.Epoch() != epoch {
		t.Errorf("epoch = %d, want %d", c.Epoch(), epoch)
	}
	if got := wordCount(t, c, "beta"); got != 1 {
		t.Errorf("beta = %d, want 1", got)
	}
	if got := wordCount(t, c, "alpha"); got != 0 {
		t.Errorf("alpha = %d, want 0", got)
	}
	if names := textNames(t, c); !slices.Equal(names, []string{"b"}) {
		t.Errorf("texts = %v, want [b]", names)
	}
}

func TestCorpus_ForceMerge(t *testing.T) {
	dir := t.TempDir()
	c := newTestCorpus(t, dir)

	for _, text := range []struct{ name, body string }{
		{"a", "one two two"},
		{"b", "two three"},
		{"c", "three three three"},
	} {
		addText(t, c, text.name, text.body)
		if err := c.Flush(); err != nil {
			t.Fatalf("Flush error: %v", err)
		}
	}
	if err := c.Remove("b"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	addText(t, c, "d", "four")

	if err := c.ForceMerge(); err != nil {
		t.Fatalf("ForceMerge error: %v", err)
	}
	if c.NumSegments() != 1 {
		t.Fatalf("expected 1 segment after merge, got %d", c.NumSegments())
	}

	want := map[string]uint64{"one": 1, "two": 2, "three": 3, "four": 1}
	for word, n := range want {
		if got := wordCount(t, c, word); got != n {
			t.Errorf("%s = %d, want %d", word, got, n)
		}
	}
	if names := textNames(t, c); !slices.Equal(names, []string{"a", "c", "d"}) {
		t.Errorf("texts = %v, want [a c d]", names)
	}

	segs, err := c.Segments()
	if err != nil {
		t.Fatalf("Segments error: %v", err)
	}
	if segs[0].NumDeleted != 0 || segs[0].NumTexts != 3 {
		t.Errorf("merged segment = %+v", segs[0])
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.seg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("expected old segment files removed, found %v", files)
	}

	// A removal after merge must hit the new segment.
	if err := c.Remove("c"); err != nil {
		t.Fatalf("Remove after merge error: %v", err)
	}
	if got := wordCount(t, c, "three"); got != 0 {
		t.Errorf("three = %d, want 0", got)
	}
}

func TestCorpus_MergeNeedsTwo(t *testing.T) {
	c := newTestCorpus(t, t.TempDir())
	if err := c.Merge([]string{"x"}); !errors.Is(err, ErrNothingToMerge) {
		t.Errorf("got %v, want ErrNothingToMerge", err)
	}
	if err := c.ForceMerge(); err != nil {
		t.Errorf("ForceMerge on empty corpus: %v", err)
	}
}

func TestCorpus_AddFiles(t *testing.T) {
	dir := t.TempDir()
	c := newTestCorpus(t, filepath.Join(dir, "corpus"))

	var paths []string
	for i, body := range []string{"x y", "y z", "z z"} {
		path := filepath.Join(dir, string(rune('a'+i))+".txt")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	if err := c.AddFiles(context.Background(), paths); err != nil {
		t.Fatalf("AddFiles error: %v", err)
	}
	if got := wordCount(t, c, "z"); got != 3 {
		t.Errorf("z = %d, want 3", got)
	}
	if names := textNames(t, c); !slices.Equal(names, paths) {
		t.Errorf("texts = %v, want %v", names, paths)
	}
}

func TestCorpus_AddFilesFailureAddsNothing(t *testing.T) {
	dir := t.TempDir()
	c := newTestCorpus(t, filepath.Join(dir, "corpus"))

	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("fine"), 0644); err != nil {
		t.Fatal(err)
	}

	err := c.AddFiles(context.Background(), []string{good, filepath.Join(dir, "missing.txt")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if names := textNames(t, c); len(names) != 0 {
		t.Errorf("texts = %v, want none", names)
	}
}

func TestCorpus_AddCountingError(t *testing.T) {
	config := DefaultConfig(t.TempDir())
	config.Count.ArenaLimit = 4
	c, err := New(config)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer c.Close()

	err = c.Add("big", strings.NewReader("abcdef ghijkl"))
	if !errors.Is(err, freq.ErrOutOfMemory) {
		t.Errorf("got %v, want ErrOutOfMemory", err)
	}
	if names := textNames(t, c); len(names) != 0 {
		t.Errorf("texts = %v, want none", names)
	}
}

func TestCorpus_Closed(t *testing.T) {
	c, err := New(DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}

	if err := c.Add("a", strings.NewReader("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Add: got %v, want ErrClosed", err)
	}
	if _, err := c.Snapshot(); !errors.Is(err, ErrClosed) {
		t.Errorf("Snapshot: got %v, want ErrClosed", err)
	}
	if err := c.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush: got %v, want ErrClosed", err)
	}
}
