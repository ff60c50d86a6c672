// Package rank orders frequency table entries and prints them.
package rank

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"harshagw/wordfreq/internal/freq"
)

// DefaultWidth is the column width words are padded to. It is the length of
// pneumonoultramicroscopicsilicovolcanoconiosis; longer words are printed
// in full.
const DefaultWidth = 45

// Rank sorts entries in place by count descending, breaking ties by word so
// the order is the same on every run.
func Rank(entries []freq.Entry) []freq.Entry {
	slices.SortFunc(entries, func(a, b freq.Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Word, b.Word)
	})
	return entries
}

// Top returns the first n ranked entries, or all of them when n <= 0.
func Top(ranked []freq.Entry, n int) []freq.Entry {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// Write prints one line per entry: the word left-justified to width, a tab
// and the count.
func Write(w io.Writer, ranked []freq.Entry, width int) error {
	bw := bufio.NewWriter(w)
	for _, e := range ranked {
		if _, err := fmt.Fprintf(bw, "%-*s\t%d\n", width, e.Word, e.Count); err != nil {
			return err
		}
	}
	return bw.Flush()
}
