package main

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"harshagw/wordfreq/internal/analysis"
	"harshagw/wordfreq/internal/config"
	"harshagw/wordfreq/internal/corpus"
	"harshagw/wordfreq/internal/counter"
	"harshagw/wordfreq/internal/freq"
	"harshagw/wordfreq/internal/logging"
	"harshagw/wordfreq/internal/rank"
	"harshagw/wordfreq/internal/search"
)

// maxWordLen is kept small so tiny chunk sizes are allowed.
const maxWordLen = 16

// chunkSizes are the chunk sizes every counting case runs through.
var chunkSizes = []int{maxWordLen + 1, maxWordLen + 3, 32, 64, 8192}

// TestCase is an input with its expected ranked output.
type TestCase struct {
	Name     string
	Input    string
	Expected []freq.Entry
}

// Category groups related cases.
type Category struct {
	Name  string
	Cases []TestCase
}

func main() {
	cfg, err := config.Load(os.Getenv("WORDFREQ_CONFIG"))
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, "warn", cfg.Logging.Format)

	fmt.Println("Word Frequency Verification")
	fmt.Println("===========================")
	fmt.Println()
	fmt.Printf("Chunk sizes: %v, max word length %d\n", chunkSizes, maxWordLen)

	passed := 0
	failed := 0
	tally := func(ok bool) {
		if ok {
			passed++
		} else {
			failed++
		}
	}

	for _, category := range getTestCategories() {
		fmt.Printf("\n%s\n", category.Name)
		fmt.Println(strings.Repeat("-", len(category.Name)))

		for _, tc := range category.Cases {
			tally(runTestCase(tc))
		}
	}

	fmt.Println("\nProperties")
	fmt.Println("----------")
	for _, text := range propertyTexts() {
		tally(checkProperties(text))
	}

	fmt.Println("\nCorpus")
	fmt.Println("------")
	tally(checkCorpus())

	fmt.Println()
	fmt.Println("========================================")
	fmt.Printf("Results: %d passed, %d failed, %d total\n", passed, failed, passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed!")
}

func countWith(input string, chunkSize int) ([]freq.Entry, error) {
	table, err := counter.Count(strings.NewReader(input), counter.Config{
		ChunkSize:  chunkSize,
		MaxWordLen: maxWordLen,
	})
	if err != nil {
		return nil, err
	}
	return rank.Rank(table.Entries()), nil
}

// runTestCase counts the input at every chunk size and compares the ranked
// output with the expected entries.
func runTestCase(tc TestCase) bool {
	for _, size := range chunkSizes {
		got, err := countWith(tc.Input, size)
		if err != nil {
			fmt.Printf("  ✗ %s (chunk %d)\n", tc.Name, size)
			fmt.Printf("    Error: %v\n", err)
			return false
		}
		if !slices.Equal(got, tc.Expected) {
			fmt.Printf("  ✗ %s (chunk %d)\n", tc.Name, size)
			fmt.Printf("    Expected: %v\n", tc.Expected)
			fmt.Printf("    Got:      %v\n", got)
			return false
		}
	}

	fmt.Printf("  ✓ %s\n", tc.Name)
	return true
}

// checkProperties checks that counts sum to the number of extracted words,
// that every word is already normalized and that ranking is ordered.
func checkProperties(text string) bool {
	name := text
	if len(name) > 30 {
		name = name[:30] + "..."
	}

	want, err := analysis.Words(text, maxWordLen)
	if err != nil {
		fmt.Printf("  ✗ %q\n    Error: %v\n", name, err)
		return false
	}

	got, err := countWith(text, chunkSizes[0])
	if err != nil {
		fmt.Printf("  ✗ %q\n    Error: %v\n", name, err)
		return false
	}

	var sum uint64
	for i, e := range got {
		sum += e.Count
		normalized := []byte(e.Word)
		analysis.Normalize(normalized)
		if !bytes.Equal(normalized, []byte(e.Word)) || strings.ToLower(e.Word) != e.Word {
			fmt.Printf("  ✗ %q\n    Word not normalized: %q\n", name, e.Word)
			return false
		}
		if i > 0 && (got[i-1].Count < e.Count || got[i-1].Count == e.Count && got[i-1].Word > e.Word) {
			fmt.Printf("  ✗ %q\n    Out of order: %v before %v\n", name, got[i-1], e)
			return false
		}
	}
	if sum != uint64(len(want)) {
		fmt.Printf("  ✗ %q\n    Sum %d, extracted %d words\n", name, sum, len(want))
		return false
	}

	fmt.Printf("  ✓ %q (%d words, %d distinct)\n", name, sum, len(got))
	return true
}

// checkCorpus stores the property texts in a corpus spread over several
// segments and checks its ranking, and the merge of per-text tables, equal
// counting the texts joined.
func checkCorpus() bool {
	dir, err := os.MkdirTemp("", "verify-*")
	if err != nil {
		fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
		return false
	}
	defer os.RemoveAll(dir)

	cfg := corpus.DefaultConfig(dir)
	cfg.FlushThreshold = 2
	cfg.Count = counter.Config{ChunkSize: chunkSizes[0], MaxWordLen: maxWordLen}
	c, err := corpus.New(cfg)
	if err != nil {
		fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
		return false
	}
	defer c.Close()

	texts := propertyTexts()
	for i, text := range texts {
		if err := c.Add(fmt.Sprintf("text%02d", i), strings.NewReader(text)); err != nil {
			fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
			return false
		}
	}

	snapshot, err := c.Snapshot()
	if err != nil {
		fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
		return false
	}
	got, err := search.New(snapshot).Ranked()
	if err != nil {
		fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
		return false
	}

	want, err := countWith(strings.Join(texts, "\n"), 8192)
	if err != nil {
		fmt.Printf("  ✗ corpus\n    Error: %v\n", err)
		return false
	}

	merged := freq.New(0)
	for _, text := range texts {
		table, err := counter.Count(strings.NewReader(text), counter.DefaultConfig())
		if err == nil {
			err = merged.Merge(table)
		}
		if err != nil {
			fmt.Printf("  ✗ merge\n    Error: %v\n", err)
			return false
		}
	}
	if mergedRanked := rank.Rank(merged.Entries()); !slices.Equal(mergedRanked, want) {
		fmt.Printf("  ✗ merge of per-text tables\n")
		fmt.Printf("    Expected: %v\n", rank.Top(want, 10))
		fmt.Printf("    Got:      %v\n", rank.Top(mergedRanked, 10))
		return false
	}
	if !slices.Equal(got, want) {
		fmt.Printf("  ✗ corpus (%d segments)\n", c.NumSegments())
		fmt.Printf("    Expected: %v\n", rank.Top(want, 10))
		fmt.Printf("    Got:      %v\n", rank.Top(got, 10))
		return false
	}

	fmt.Printf("  ✓ corpus of %d texts over %d segments\n", len(texts), c.NumSegments())
	return true
}

func propertyTexts() []string {
	return []string{
		"It was the best of times, it was the worst of times.",
		"Call me Ishmael. Some years ago - never mind how long precisely - having little or no money in my purse...",
		"The dog's bowl; the dogs' bowls: (all) [of] {them}!",
		"1st 2nd 3rd place\tgoes\nto\r\nthe\vquick\fbrown fox",
		"don't won't can't shouldn't y'all o'clock",
		strings.Repeat("buffalo ", 37),
		"",
	}
}

func getTestCategories() []Category {
	return []Category{
		{
			Name: "Examples",
			Cases: []TestCase{
				{"punctuation", "Hello, world! Hello.", []freq.Entry{{Word: "hello", Count: 2}, {Word: "world", Count: 1}}},
				{"digit-leading words", "3cats dog dog", []freq.Entry{{Word: "dog", Count: 2}}},
				{"possessives", "dog's dog's cat", []freq.Entry{{Word: "dog", Count: 2}, {Word: "cat", Count: 1}}},
				{"empty input", "", nil},
				{"whitespace only", " \t\n\v\f\r ", nil},
			},
		},
		{
			Name: "Normalization",
			Cases: []TestCase{
				{"case folding", "Go GO go gO", []freq.Entry{{Word: "go", Count: 4}}},
				{"hyphens split words", "well-known well known", []freq.Entry{{Word: "known", Count: 2}, {Word: "well", Count: 2}}},
				{"brackets", "(a)[b]{c}", []freq.Entry{{Word: "a", Count: 1}, {Word: "b", Count: 1}, {Word: "c", Count: 1}}},
				{"trailing apostrophe", "dogs' dogs", []freq.Entry{{Word: "dogs", Count: 2}}},
				{"inner apostrophe kept", "don't don't", []freq.Entry{{Word: "don't", Count: 2}}},
			},
		},
		{
			Name: "Ranking",
			Cases: []TestCase{
				{"ties by word", "b a c b a c", []freq.Entry{{Word: "a", Count: 2}, {Word: "b", Count: 2}, {Word: "c", Count: 2}}},
				{"count first", "z z z a", []freq.Entry{{Word: "z", Count: 3}, {Word: "a", Count: 1}}},
			},
		},
		{
			Name: "Chunk boundaries",
			Cases: []TestCase{
				{"long run of words", strings.Repeat("abcdefghijklmno ", 20), []freq.Entry{{Word: "abcdefghijklmno", Count: 20}}},
				{"max length word", "abcdefghijklmnop x abcdefghijklmnop", []freq.Entry{{Word: "abcdefghijklmnop", Count: 2}, {Word: "x", Count: 1}}},
				{"no trailing newline", "tail tail", []freq.Entry{{Word: "tail", Count: 2}}},
			},
		},
	}
}
