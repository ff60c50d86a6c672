// Wordfreq counts the words on standard input and prints them by
// descending frequency, one per line.
//
// Run with: go run ./cmd/wordfreq < book.txt
package main

import (
	"log/slog"
	"os"

	"harshagw/wordfreq/internal/counter"
	"harshagw/wordfreq/internal/logging"
)

func main() {
	logging.Setup(os.Stderr, "warn", "text")

	stats, err := counter.Run(os.Stdin, os.Stdout, counter.DefaultConfig())
	if err != nil {
		slog.Error("wordfreq failed", "error", err)
		os.Exit(1)
	}

	slog.Debug("done", "words", stats.Words, "distinct", stats.Distinct, "bytes", stats.Bytes)
}
