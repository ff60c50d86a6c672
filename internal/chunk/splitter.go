// Package chunk reads a byte stream in fixed-size chunks and hands out
// regions that never end in the middle of a word.
package chunk

import (
	"errors"
	"fmt"
	"io"

	"harshagw/wordfreq/internal/analysis"
)

var (
	// ErrRead wraps failures of the underlying reader.
	ErrRead = errors.New("read error")

	// ErrChunkTooSmall is returned when the chunk cannot hold a maximal
	// word plus at least one new byte.
	ErrChunkTooSmall = errors.New("chunk size must exceed max word length")
)

// Splitter fills a buffer from r, keeping any partial word from the
// previous fill at the head of the buffer. Each fill is normalized and each
// call to Next exposes the part of the buffer up to the last whitespace
// byte.
type Splitter struct {
	r       io.Reader
	buf     []byte
	maxWord int

	leftover int   // bytes carried to the head of buf
	region   []byte
	offset   int64 // stream offset of buf[0]
	next     int64 // stream offset of the byte after the last fill
	eof      bool
	err      error
}

// New returns a Splitter reading chunks of size bytes. size must be larger
// than maxWord so a carried word always leaves room for new input.
func New(r io.Reader, size, maxWord int) (*Splitter, error) {
	if maxWord < 1 {
		return nil, fmt.Errorf("max word length %d: must be positive", maxWord)
	}
	if size <= maxWord {
		return nil, fmt.Errorf("%w: chunk %d, max word %d", ErrChunkTooSmall, size, maxWord)
	}
	return &Splitter{
		r:       r,
		buf:     make([]byte, size),
		maxWord: maxWord,
	}, nil
}

// Next reads the next chunk. It returns false at the end of the stream or
// on error; Err distinguishes the two.
func (s *Splitter) Next() bool {
	if s.err != nil {
		return false
	}

	// Slide the previous leftover down to the head of the buffer.
	if s.region != nil {
		end := int(s.next - s.offset)
		copy(s.buf, s.buf[end-s.leftover:end])
		s.offset = s.next - int64(s.leftover)
		s.region = nil
	}

	nread := 0
	if !s.eof {
		n, err := io.ReadFull(s.r, s.buf[s.leftover:])
		nread = n
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			s.eof = true
		case err != nil:
			s.err = fmt.Errorf("%w at offset %d: %w", ErrRead, s.next+int64(n), err)
			return false
		}
	}
	s.next += int64(nread)

	filled := s.leftover + nread
	if filled == 0 {
		return false
	}

	// Punctuation separates words, so boundaries are found on normalized
	// bytes. The carried leftover is already normalized.
	analysis.Normalize(s.buf[s.leftover:filled])

	k := filled - 1
	for k >= 0 && !analysis.IsSpace(s.buf[k]) {
		k--
	}

	if k < 0 {
		// A region with no white space is either the final token of the
		// stream or a token that filled the whole chunk.
		if !s.eof {
			s.err = &analysis.WordTooLongError{Offset: 0, Len: filled, Max: s.maxWord}
			return false
		}
		s.region = s.buf[:filled]
		s.leftover = 0
		return true
	}

	s.region = s.buf[:k]
	s.leftover = filled - k - 1
	if s.leftover > s.maxWord {
		s.err = &analysis.WordTooLongError{Offset: k + 1, Len: s.leftover, Max: s.maxWord}
		return false
	}
	return true
}

// Region returns the bytes safe to process, with punctuation already
// rewritten to spaces. The slice may be modified in place and is valid until
// the next call to Next.
func (s *Splitter) Region() []byte { return s.region }

// Offset returns the stream offset of the first byte of Region.
func (s *Splitter) Offset() int64 { return s.offset }

// BytesRead returns the number of bytes read from the stream so far.
func (s *Splitter) BytesRead() int64 { return s.next }

// Err returns the first error encountered, or nil at a clean end of stream.
func (s *Splitter) Err() error { return s.err }
