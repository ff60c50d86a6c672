package main

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"harshagw/wordfreq/internal/corpus"
	"harshagw/wordfreq/internal/counter"
	"harshagw/wordfreq/internal/logging"
	"harshagw/wordfreq/internal/rank"
	"harshagw/wordfreq/internal/search"
)

const (
	defaultSizeMB = 16
	numTexts      = 200
	runs          = 3
)

var chunkSizes = []int{1024, 4096, 8192, 65536, 1 << 20}

func main() {
	logging.Setup(os.Stderr, "warn", "text")

	sizeMB := defaultSizeMB
	if len(os.Args) >= 2 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			sizeMB = n
		}
	}

	fmt.Println("Word Frequency Benchmark")
	fmt.Println("========================")
	fmt.Println()

	benchStart := time.Now()

	text := generateText(rand.New(rand.NewPCG(1, 2)), sizeMB<<20)
	fmt.Printf("Generated %s of text\n\n", formatBytes(int64(len(text))))

	runCountingBenchmark(text)

	c, dir := runCorpusBenchmark(text)
	defer os.RemoveAll(dir)
	defer c.Close()

	runQueryBenchmarks(c)

	fmt.Printf("Total time: %.2f seconds\n", time.Since(benchStart).Seconds())
}

// vocabulary is a Zipf-like word list: earlier words are drawn more often.
var vocabulary = []string{
	"the", "of", "and", "to", "a", "in", "is", "it", "you", "that",
	"he", "was", "for", "on", "are", "with", "as", "his", "they", "be",
	"at", "one", "have", "this", "from", "or", "had", "by", "word", "but",
	"what", "some", "we", "can", "out", "other", "were", "all", "there", "when",
	"river", "mountain", "library", "engine", "segment", "harbor", "lantern", "meadow", "quartz", "violin",
	"whale", "ship", "captain", "ocean", "harpoon", "sailor", "storm", "island", "compass", "anchor",
}

var punctuation = []string{"", "", "", "", ",", ".", ";", "!", "?", "'s", ")", "-"}

// generateText returns about size bytes of deterministic prose.
func generateText(rng *rand.Rand, size int) []byte {
	zipf := rand.NewZipf(rng, 1.2, 1, uint64(len(vocabulary)-1))

	var buf bytes.Buffer
	buf.Grow(size + 64)
	for col := 0; buf.Len() < size; {
		word := vocabulary[zipf.Uint64()]
		if rng.IntN(20) == 0 {
			buf.WriteString("Mr. ")
		}
		buf.WriteString(word)
		buf.WriteString(punctuation[rng.IntN(len(punctuation))])

		col += len(word) + 1
		if col > 72 {
			buf.WriteByte('\n')
			col = 0
		} else {
			buf.WriteByte(' ')
		}
	}
	return buf.Bytes()
}

func runCountingBenchmark(text []byte) {
	fmt.Println("COUNTING")
	fmt.Println("--------")

	// Warm up run
	counter.Count(bytes.NewReader(text[:min(len(text), 1<<20)]), counter.DefaultConfig())

	for _, size := range chunkSizes {
		cfg := counter.DefaultConfig()
		cfg.ChunkSize = size

		var totalTime time.Duration
		var words uint64
		var distinct int
		for i := 0; i < runs; i++ {
			start := time.Now()
			table, err := counter.Count(bytes.NewReader(text), cfg)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			totalTime += time.Since(start)
			words, distinct = table.Total(), table.Len()
		}

		avg := totalTime / runs
		mbps := float64(len(text)) / (1 << 20) / avg.Seconds()
		fmt.Printf("  chunk %-8s %8v  %7.1f MB/s  (%d words, %d distinct)\n",
			formatBytes(int64(size)), avg.Round(time.Microsecond), mbps, words, distinct)
	}
	fmt.Println()
}

// runCorpusBenchmark splits text into numTexts texts, adds them to a fresh
// corpus and times add, flush and merge.
func runCorpusBenchmark(text []byte) (*corpus.Corpus, string) {
	fmt.Println("CORPUS")
	fmt.Println("------")

	dir, err := os.MkdirTemp("", "bench-*")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg := corpus.DefaultConfig(dir)
	cfg.FlushThreshold = numTexts / 4 // several segments
	c, err := corpus.New(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	parts := splitText(text, numTexts)
	start := time.Now()
	for i, part := range parts {
		if err := c.Add(fmt.Sprintf("text%04d", i), bytes.NewReader(part)); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	if err := c.Flush(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	addTime := time.Since(start)

	fmt.Printf("  Texts:      %d\n", len(parts))
	fmt.Printf("  Add+flush:  %v\n", addTime.Round(time.Millisecond))
	fmt.Printf("  Throughput: %.0f texts/sec\n", float64(len(parts))/addTime.Seconds())
	printSegments(c)

	// Remove every tenth text so merge has deletions to drop.
	for i := 0; i < len(parts); i += 10 {
		c.Remove(fmt.Sprintf("text%04d", i))
	}
	start = time.Now()
	if err := c.ForceMerge(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Merge:      %v\n", time.Since(start).Round(time.Millisecond))
	printSegments(c)
	fmt.Println()

	return c, dir
}

// splitText cuts text into n parts at whitespace.
func splitText(text []byte, n int) [][]byte {
	parts := make([][]byte, 0, n)
	size := len(text) / n
	for len(text) > 0 {
		end := min(size, len(text))
		for end < len(text) && text[end] != ' ' && text[end] != '\n' {
			end++
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

func printSegments(c *corpus.Corpus) {
	segs, err := c.Segments()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var totalSize int64
	for _, seg := range segs {
		if info, err := os.Stat(seg.Path); err == nil {
			totalSize += info.Size()
		}
	}
	fmt.Printf("  Segments:   %d (%s on disk)\n", len(segs), formatBytes(totalSize))
}

func runQueryBenchmarks(c *corpus.Corpus) {
	fmt.Println("QUERIES")
	fmt.Println("-------")

	snapshot, err := c.Snapshot()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	s := search.New(snapshot)
	defer s.Close()

	bench := func(name string, fn func() (int, error)) {
		var total time.Duration
		var n int
		for i := 0; i < runs; i++ {
			start := time.Now()
			var err error
			n, err = fn()
			if err != nil {
				fmt.Printf("  %-24s error: %v\n", name, err)
				return
			}
			total += time.Since(start)
		}
		fmt.Printf("  %-24s %10v  %d results\n", name, (total / runs).Round(time.Microsecond), n)
	}

	bench("word the", func() (int, error) {
		hit, err := s.Word("the")
		return len(hit.Texts), err
	})
	bench("word harpoon", func() (int, error) {
		hit, err := s.Word("harpoon")
		return len(hit.Texts), err
	})
	bench("prefix s", func() (int, error) {
		hits, err := s.Prefix("s")
		return len(hits), err
	})
	bench("regex .*or", func() (int, error) {
		hits, err := s.Regex(".*or")
		return len(hits), err
	})
	bench("fuzzy sailer~1", func() (int, error) {
		hits, err := s.Fuzzy("sailer", 1)
		return len(hits), err
	})
	bench("all whale ship storm", func() (int, error) {
		names, err := s.All("whale", "ship", "storm")
		return len(names), err
	})

	bench("ranked", func() (int, error) {
		entries, err := s.Ranked()
		return len(entries), err
	})
	fmt.Println()

	entries, err := s.Ranked()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("TOP WORDS")
	fmt.Println("---------")
	rank.Write(os.Stdout, rank.Top(entries, 10), rank.DefaultWidth)
	fmt.Println()
}

func formatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	if n >= MB {
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	}
	if n >= KB {
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	}
	return fmt.Sprintf("%d B", n)
}
