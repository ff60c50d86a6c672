// Playground for trying the word frequency corpus.
//
// Run with: go run ./cmd/playground
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"harshagw/wordfreq/internal/corpus"
	"harshagw/wordfreq/internal/rank"
	"harshagw/wordfreq/internal/search"
)

func printHits(title string, hits []search.Hit, err error) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", 60))
	if err != nil {
		fmt.Printf("  Error: %v\n\n", err)
		return
	}
	if len(hits) == 0 {
		fmt.Println("  No words found")
	}
	for i, h := range hits {
		fmt.Printf("  %d. %s %d %v\n", i+1, h.Word, h.Count, h.Texts)
	}
	fmt.Println()
}

func main() {
	dir, err := os.MkdirTemp("", "wordfreq-playground-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	fmt.Println("=== Word Frequency Playground ===")
	fmt.Printf("Corpus directory: %s\n\n", dir)

	c, err := corpus.New(corpus.DefaultConfig(dir))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	texts := []struct {
		name string
		body string
	}{
		{"dickens", "It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness."},
		{"melville", "Call me Ishmael. Some years ago - never mind how long precisely - having little or no money in my purse, and nothing particular to interest me on shore, I thought I would sail about a little and see the watery part of the world."},
		{"austen", "It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife."},
		{"carroll", "Alice was beginning to get very tired of sitting by her sister on the bank, and of having nothing to do."},
	}

	// First two texts go to a segment, the rest stay buffered.
	for i, t := range texts {
		if err := c.Add(t.name, strings.NewReader(t.body)); err != nil {
			log.Fatal(err)
		}
		if i == 1 {
			if err := c.Flush(); err != nil {
				log.Fatal(err)
			}
		}
	}
	fmt.Printf("Added %d texts, %d segments\n\n", len(texts), c.NumSegments())

	snapshot, err := c.Snapshot()
	if err != nil {
		log.Fatal(err)
	}
	s := search.New(snapshot)
	defer s.Close()

	ranked, err := s.Ranked()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Top words")
	fmt.Println(strings.Repeat("-", 60))
	rank.Write(os.Stdout, rank.Top(ranked, 8), 20)
	fmt.Println()

	hits, err := s.Prefix("wi")
	printHits("Prefix: wi", hits, err)

	hits, err = s.Regex("[a-z]*ing")
	printHits("Regex: [a-z]*ing", hits, err)

	hits, err = s.Fuzzy("tines", 1)
	printHits("Fuzzy: tines~1", hits, err)

	names, err := s.All("it", "was")
	fmt.Printf("Texts with it and was: %v %v\n", names, err)
}
