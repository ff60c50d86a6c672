package analysis

import (
	"errors"
	"fmt"
)

// ErrWordTooLong is returned when a token exceeds the configured maximum
// word length. Such tokens fail the run instead of being truncated.
var ErrWordTooLong = errors.New("word too long")

// WordTooLongError describes the offending token.
type WordTooLongError struct {
	Offset int // offset of the token within the region
	Len    int // bytes seen before giving up
	Max    int
}

func (e *WordTooLongError) Error() string {
	return fmt.Sprintf("word too long at offset %d: %d bytes exceeds limit of %d", e.Offset, e.Len, e.Max)
}

func (e *WordTooLongError) Is(target error) bool {
	return target == ErrWordTooLong
}

// Extractor walks a normalized region and yields one word per call to Next.
// Words are lower-cased, tokens starting with a digit are dropped and a
// trailing possessive ('s or ') is stripped.
//
//	ex := analysis.NewExtractor(region, 512)
//	for ex.Next() {
//		table.Increment(ex.Word())
//	}
//	if err := ex.Err(); err != nil { ... }
type Extractor struct {
	region  []byte
	pos     int
	maxWord int

	word  []byte
	start int
	end   int
	err   error
}

// NewExtractor returns an Extractor over region. Tokens longer than maxWord
// bytes stop the sequence with ErrWordTooLong.
func NewExtractor(region []byte, maxWord int) *Extractor {
	return &Extractor{
		region:  region,
		maxWord: maxWord,
		word:    make([]byte, 0, maxWord),
	}
}

// Next advances to the next word. It returns false at the end of the region
// or on error.
func (e *Extractor) Next() bool {
	if e.err != nil {
		return false
	}

	for {
		for e.pos < len(e.region) && IsSpace(e.region[e.pos]) {
			e.pos++
		}
		if e.pos == len(e.region) {
			return false
		}

		e.start = e.pos
		e.word = e.word[:0]
		for ; e.pos < len(e.region) && !IsSpace(e.region[e.pos]); e.pos++ {
			if len(e.word) == e.maxWord {
				e.err = &WordTooLongError{Offset: e.start, Len: len(e.word) + 1, Max: e.maxWord}
				return false
			}
			e.word = append(e.word, toLower(e.region[e.pos]))
		}
		e.end = e.pos

		if IsDigit(e.word[0]) {
			continue
		}

		e.word = stripPossessive(e.word)
		if len(e.word) == 0 {
			continue
		}
		return true
	}
}

// stripPossessive removes a trailing 's, or failing that a trailing '.
func stripPossessive(w []byte) []byte {
	n := len(w)
	if n >= 2 && w[n-2] == '\'' && w[n-1] == 's' {
		return w[:n-2]
	}
	if n >= 1 && w[n-1] == '\'' {
		return w[:n-1]
	}
	return w
}

// Word returns the current word. The slice is overwritten by the next call
// to Next.
func (e *Extractor) Word() []byte { return e.word }

// Start returns the region offset of the current token.
func (e *Extractor) Start() int { return e.start }

// End returns the region offset just past the current token.
func (e *Extractor) End() int { return e.end }

// Err returns the error that stopped the extractor, if any.
func (e *Extractor) Err() error { return e.err }

// Words normalizes a copy of text and returns its words in order.
func Words(text string, maxWord int) ([]string, error) {
	buf := []byte(text)
	Normalize(buf)

	var words []string
	ex := NewExtractor(buf, maxWord)
	for ex.Next() {
		words = append(words, string(ex.Word()))
	}
	return words, ex.Err()
}
