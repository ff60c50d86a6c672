package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/couchbase/vellum"
	"github.com/couchbase/vellum/levenshtein"
	"github.com/couchbase/vellum/regexp"
)

// dictionary returns the word FST, loading it on first use. A segment with
// no words has no dictionary and returns nil.
func (s *Segment) dictionary() (*vellum.FST, error) {
	s.fstOnce.Do(func() {
		if s.footer.NumWords == 0 {
			return
		}
		off := s.footer.DictOffset
		size := binary.BigEndian.Uint64(s.data[off:])
		s.fst, s.fstErr = vellum.Load(s.data[off+8 : off+8+size])
		if s.fstErr != nil {
			s.fstErr = fmt.Errorf("failed to load dictionary: %w", s.fstErr)
		}
	})
	return s.fst, s.fstErr
}

// postings decodes the FST value of a word into its posting list.
func (s *Segment) postings(val uint64, deleted *roaring.Bitmap) ([]Posting, error) {
	if IsOneHit(val) {
		textNum := DecodeOneHit(val)
		if deleted != nil && deleted.Contains(uint32(textNum)) {
			return nil, nil
		}
		return []Posting{{TextNum: textNum, Count: 1}}, nil
	}

	postings, err := DecodePostings(s.data[s.footer.PostingsOffset+val:])
	if err != nil {
		return nil, err
	}

	if deleted != nil && !deleted.IsEmpty() {
		filtered := postings[:0]
		for _, p := range postings {
			if !deleted.Contains(uint32(p.TextNum)) {
				filtered = append(filtered, p)
			}
		}
		return filtered, nil
	}
	return postings, nil
}

// Lookup returns the postings of word, skipping deleted texts.
func (s *Segment) Lookup(word string, deleted *roaring.Bitmap) ([]Posting, error) {
	fst, err := s.dictionary()
	if err != nil || fst == nil {
		return nil, err
	}

	val, exists, err := fst.Get([]byte(word))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return s.postings(val, deleted)
}

// TextsWith returns the live textNums containing word.
func (s *Segment) TextsWith(word string, deleted *roaring.Bitmap) (*roaring.Bitmap, error) {
	fst, err := s.dictionary()
	if err != nil || fst == nil {
		return roaring.New(), err
	}

	val, exists, err := fst.Get([]byte(word))
	if err != nil {
		return nil, err
	}
	if !exists {
		return roaring.New(), nil
	}
	if IsOneHit(val) {
		bm := roaring.New()
		if textNum := DecodeOneHit(val); deleted == nil || !deleted.Contains(uint32(textNum)) {
			bm.Add(uint32(textNum))
		}
		return bm, nil
	}
	return DecodePostingsBitmap(s.data[s.footer.PostingsOffset+val:], deleted)
}

// ForEachWord calls fn for every word in dictionary order with its live
// postings. Words with no live postings are skipped.
func (s *Segment) ForEachWord(deleted *roaring.Bitmap, fn func(word string, postings []Posting) error) error {
	fst, err := s.dictionary()
	if err != nil || fst == nil {
		return err
	}

	iter, err := fst.Iterator(nil, nil)
	for err == nil {
		key, val := iter.Current()
		postings, perr := s.postings(val, deleted)
		if perr != nil {
			return perr
		}
		if len(postings) > 0 {
			if ferr := fn(string(key), postings); ferr != nil {
				return ferr
			}
		}
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return err
	}
	return nil
}

// searchWithAutomaton is a helper that searches the dictionary using any
// vellum automaton.
func (s *Segment) searchWithAutomaton(aut vellum.Automaton) ([]string, error) {
	fst, err := s.dictionary()
	if err != nil || fst == nil {
		return nil, err
	}

	iter, err := fst.Search(aut, nil, nil)
	var words []string
	for err == nil {
		key, _ := iter.Current()
		words = append(words, string(key))
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("failed to search dictionary: %w", err)
	}
	return words, nil
}

// MatchingWords returns all words that match the given regex pattern.
func (s *Segment) MatchingWords(pattern string) ([]string, error) {
	aut, err := regexp.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return s.searchWithAutomaton(aut)
}

// FuzzyWords returns all words within edit distance of the query.
func (s *Segment) FuzzyWords(word string, fuzziness uint8) ([]string, error) {
	builder, err := levenshtein.NewLevenshteinAutomatonBuilder(fuzziness, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create levenshtein builder: %w", err)
	}

	aut, err := builder.BuildDfa(word, fuzziness)
	if err != nil {
		return nil, fmt.Errorf("failed to build fuzzy automaton: %w", err)
	}
	return s.searchWithAutomaton(aut)
}

// PrefixWords returns all words that start with the given prefix.
// Uses an FST range scan instead of an automaton.
func (s *Segment) PrefixWords(prefix string) ([]string, error) {
	fst, err := s.dictionary()
	if err != nil || fst == nil {
		return nil, err
	}

	start := []byte(prefix)
	iter, err := fst.Iterator(start, prefixSuccessor(start))
	var words []string
	for err == nil {
		key, _ := iter.Current()
		words = append(words, string(key))
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return nil, err
	}
	return words, nil
}
