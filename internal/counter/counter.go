// Package counter wires the chunk splitter (which normalizes punctuation),
// the word extractor and the frequency table into a single pass over a
// stream.
package counter

import (
	"fmt"
	"io"

	"harshagw/wordfreq/internal/analysis"
	"harshagw/wordfreq/internal/chunk"
	"harshagw/wordfreq/internal/freq"
	"harshagw/wordfreq/internal/rank"
)

// Config controls chunking and resource limits.
type Config struct {
	ChunkSize  int // bytes per read, including any carried partial word
	MaxWordLen int // longest accepted token; must be below ChunkSize
	ArenaLimit int // cap on key bytes held by the table, 0 for none
}

// DefaultConfig returns the configuration used by the wordfreq command.
func DefaultConfig() Config {
	return Config{
		ChunkSize:  8 * 1024,
		MaxWordLen: 512,
	}
}

// Validate checks that a carried word always leaves room in the chunk.
func (c Config) Validate() error {
	if c.MaxWordLen < 1 {
		return fmt.Errorf("invalid max word length %d", c.MaxWordLen)
	}
	if c.ChunkSize <= c.MaxWordLen {
		return fmt.Errorf("%w: chunk %d, max word %d", chunk.ErrChunkTooSmall, c.ChunkSize, c.MaxWordLen)
	}
	if c.ArenaLimit < 0 {
		return fmt.Errorf("invalid arena limit %d", c.ArenaLimit)
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Words    uint64 // words counted
	Distinct int    // distinct words
	Bytes    int64  // bytes consumed from the stream
}

// Count reads r to the end and returns the frequency of every word. On any
// error the partial table is discarded.
func Count(r io.Reader, cfg Config) (*freq.Table, error) {
	table, _, err := count(r, cfg)
	return table, err
}

func count(r io.Reader, cfg Config) (*freq.Table, int64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	s, err := chunk.New(r, cfg.ChunkSize, cfg.MaxWordLen)
	if err != nil {
		return nil, 0, err
	}

	table := freq.New(cfg.ArenaLimit)
	for s.Next() {
		ex := analysis.NewExtractor(s.Region(), cfg.MaxWordLen)
		for ex.Next() {
			if err := table.Increment(ex.Word()); err != nil {
				return nil, 0, fmt.Errorf("counting word at offset %d: %w", s.Offset()+int64(ex.Start()), err)
			}
		}
		if err := ex.Err(); err != nil {
			return nil, 0, fmt.Errorf("chunk at offset %d: %w", s.Offset(), err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}

	return table, s.BytesRead(), nil
}

// Run counts r and writes the ranked table to w. Nothing is written unless
// the whole stream was counted.
func Run(r io.Reader, w io.Writer, cfg Config) (Stats, error) {
	table, consumed, err := count(r, cfg)
	if err != nil {
		return Stats{}, err
	}

	ranked := rank.Rank(table.Entries())
	if err := rank.Write(w, ranked, rank.DefaultWidth); err != nil {
		return Stats{}, fmt.Errorf("writing results: %w", err)
	}

	return Stats{
		Words:    table.Total(),
		Distinct: table.Len(),
		Bytes:    consumed,
	}, nil
}
