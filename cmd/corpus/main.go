package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"harshagw/wordfreq/internal/config"
	"harshagw/wordfreq/internal/corpus"
	"harshagw/wordfreq/internal/logging"
	"harshagw/wordfreq/internal/rank"
	"harshagw/wordfreq/internal/search"

	"github.com/c-bata/go-prompt"
)

const defaultTop = 20

type REPL struct {
	c *corpus.Corpus
}

func main() {
	cfg, err := config.Load(os.Getenv("WORDFREQ_CONFIG"))
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	fmt.Println("Word Frequency Corpus REPL")
	fmt.Println()
	printHelp()
	fmt.Println()

	c, err := corpus.New(corpus.Config{
		Dir:            cfg.Corpus.Dir,
		FlushThreshold: cfg.Corpus.FlushThreshold,
		Workers:        cfg.Corpus.Workers,
		Count:          cfg.Counter.Counting(),
	})
	if err != nil {
		fmt.Printf("Error opening corpus: %v\n", err)
		os.Exit(1)
	}

	r := &REPL{c: c}
	fmt.Printf("Corpus loaded from %s (%d segments)\n\n", cfg.Corpus.Dir, c.NumSegments())

	p := prompt.New(
		r.executor,
		r.completer,
		prompt.OptionPrefix("wordfreq >> "),
		prompt.OptionTitle("wordfreq"),
	)
	p.Run()
}

var commands = []prompt.Suggest{
	{Text: "add", Description: "Count a file under a name"},
	{Text: "addall", Description: "Count files in parallel"},
	{Text: "remove", Description: "Remove a text"},
	{Text: "flush", Description: "Write buffered texts to a segment"},
	{Text: "merge", Description: "Merge all segments"},
	{Text: "top", Description: "Most frequent words"},
	{Text: "count", Description: "Count of one word"},
	{Text: "prefix", Description: "Words with a prefix"},
	{Text: "regex", Description: "Words matching a regex"},
	{Text: "fuzzy", Description: "Words within an edit distance"},
	{Text: "all", Description: "Texts containing every word"},
	{Text: "texts", Description: "List texts"},
	{Text: "segments", Description: "List segments"},
	{Text: "help", Description: "Show help"},
	{Text: "quit", Description: "Exit"},
}

func (r *REPL) completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  add <name> <path>     - Count a file and store it under name")
	fmt.Println("  addall <paths...>     - Count files in parallel, named by path")
	fmt.Println("  remove <name>         - Remove a text")
	fmt.Println("  flush                 - Write buffered texts to a new segment")
	fmt.Println("  merge                 - Merge segments, drop removed texts")
	fmt.Println("  top [n]               - Most frequent words across the corpus")
	fmt.Println("  count <word> [texts]  - Count of a word and the texts using it")
	fmt.Println("  prefix <p>            - Words starting with p")
	fmt.Println("  regex <re>            - Words matching re")
	fmt.Println("  fuzzy <word> [d]      - Words within d edits (default 1)")
	fmt.Println("  all <words...>        - Texts containing every word")
	fmt.Println("  texts                 - List texts")
	fmt.Println("  segments              - List all segments")
	fmt.Println("  help                  - Show this help")
	fmt.Println("  quit                  - Exit")
}

func (r *REPL) executor(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "add":
		r.cmdAdd(parts[1:])
	case "addall":
		r.cmdAddAll(parts[1:])
	case "remove":
		r.cmdRemove(parts[1:])
	case "flush":
		r.cmdFlush()
	case "merge":
		r.cmdMerge()
	case "top":
		r.cmdTop(parts[1:])
	case "count":
		r.cmdCount(parts[1:])
	case "prefix", "regex", "fuzzy":
		r.cmdMatch(cmd, parts[1:])
	case "all":
		r.cmdAll(parts[1:])
	case "texts":
		r.cmdTexts()
	case "segments":
		r.cmdSegments()
	case "help":
		printHelp()
	case "quit", "exit":
		fmt.Println("Goodbye!")
		if err := r.c.Flush(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		r.c.Close()
		os.Exit(0)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: add <name> <path>")
		return
	}

	f, err := os.Open(args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer f.Close()

	if err := r.c.Add(args[0], f); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Added '%s'\n", args[0])
}

func (r *REPL) cmdAddAll(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: addall <paths...>")
		return
	}

	if err := r.c.AddFiles(context.Background(), args); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Added %d texts\n", len(args))
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: remove <name>")
		return
	}

	if err := r.c.Remove(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Removed '%s'\n", args[0])
}

func (r *REPL) cmdFlush() {
	if err := r.c.Flush(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Flushed. %d segments.\n", r.c.NumSegments())
}

func (r *REPL) cmdMerge() {
	if err := r.c.ForceMerge(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Merged. %d segments.\n", r.c.NumSegments())
}

func (r *REPL) searcher() (*search.Searcher, bool) {
	snap, err := r.c.Snapshot()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, false
	}
	return search.New(snap), true
}

func (r *REPL) cmdTop(args []string) {
	n := defaultTop
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Invalid count: %v\n", err)
			return
		}
		n = v
	}

	s, ok := r.searcher()
	if !ok {
		return
	}
	defer s.Close()

	ranked, err := s.Ranked()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(ranked) == 0 {
		fmt.Println("Corpus is empty")
		return
	}
	if err := rank.Write(os.Stdout, rank.Top(ranked, n), rank.DefaultWidth); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (r *REPL) cmdCount(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: count <word> [texts...]")
		return
	}

	s, ok := r.searcher()
	if !ok {
		return
	}
	defer s.Close()

	word := strings.ToLower(args[0])
	var hit search.Hit
	var err error
	if len(args) > 1 {
		hit, err = s.WordIn(word, args[1:]...)
	} else {
		hit, err = s.Word(word)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if hit.Count == 0 {
		fmt.Printf("No occurrences of %s\n", word)
		return
	}
	fmt.Printf("%s: %d in %d texts\n", word, hit.Count, len(hit.Texts))
	for _, name := range hit.Texts {
		fmt.Printf("  %s\n", name)
	}
}

func (r *REPL) cmdMatch(kind string, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: %s <pattern>\n", kind)
		return
	}

	s, ok := r.searcher()
	if !ok {
		return
	}
	defer s.Close()

	var hits []search.Hit
	var err error
	switch kind {
	case "prefix":
		hits, err = s.Prefix(strings.ToLower(args[0]))
	case "regex":
		hits, err = s.Regex(args[0])
	case "fuzzy":
		d := uint64(1)
		if len(args) > 1 {
			d, err = strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				fmt.Printf("Invalid distance: %v\n", err)
				return
			}
		}
		hits, err = s.Fuzzy(strings.ToLower(args[0]), uint8(d))
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if len(hits) == 0 {
		fmt.Printf("No words for %s %s\n", kind, args[0])
		return
	}
	fmt.Printf("Found %d words:\n", len(hits))
	for _, h := range hits {
		fmt.Printf("  %-*s\t%d\t(%d texts)\n", rank.DefaultWidth, h.Word, h.Count, len(h.Texts))
	}
}

func (r *REPL) cmdAll(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: all <words...>")
		return
	}

	s, ok := r.searcher()
	if !ok {
		return
	}
	defer s.Close()

	words := make([]string, len(args))
	for i, w := range args {
		words[i] = strings.ToLower(w)
	}
	names, err := s.All(words...)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	desc := "ALL(" + strings.Join(words, ", ") + ")"
	if len(names) == 0 {
		fmt.Printf("No texts for %s\n", desc)
		return
	}
	fmt.Printf("Found %d texts for %s:\n", len(names), desc)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}

func (r *REPL) cmdTexts() {
	texts, err := r.c.Texts()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(texts) == 0 {
		fmt.Println("No texts")
		return
	}
	fmt.Printf("%d texts:\n", len(texts))
	for _, t := range texts {
		where := t.SegmentID
		if where == "" {
			where = "buffered"
		}
		fmt.Printf("  %s: %d words, %d distinct (%s)\n", t.Name, t.Words, t.Distinct, where)
	}
}

func (r *REPL) cmdSegments() {
	segs, err := r.c.Segments()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(segs) == 0 {
		fmt.Println("No segments")
		return
	}
	fmt.Printf("%d segments:\n", len(segs))
	for _, seg := range segs {
		fmt.Printf("  %s: %d texts, %d deleted, %d words\n", seg.ID, seg.NumTexts, seg.NumDeleted, seg.NumWords)
	}
}
