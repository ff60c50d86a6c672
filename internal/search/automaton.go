package search

import (
	"fmt"
	"regexp"
	"strings"

	"harshagw/wordfreq/internal/segment"
)

// wordMatcher checks a buffered word against a pattern.
type wordMatcher func(word string) bool

// segmentWordFinder lists the matching words of one segment's dictionary.
type segmentWordFinder func(seg *segment.Segment) ([]string, error)

// Prefix returns every word starting with prefix, ranked.
func (s *Searcher) Prefix(prefix string) ([]Hit, error) {
	return s.automatonSearch(
		func(seg *segment.Segment) ([]string, error) {
			return seg.PrefixWords(prefix)
		},
		func(word string) bool {
			return strings.HasPrefix(word, prefix)
		},
	)
}

// Regex returns every word fully matching pattern, ranked.
func (s *Searcher) Regex(pattern string) ([]Hit, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	return s.automatonSearch(
		func(seg *segment.Segment) ([]string, error) {
			return seg.MatchingWords(pattern)
		},
		re.MatchString,
	)
}

// Fuzzy returns every word within fuzziness edits of word, ranked. An
// adjacent transposition counts as one edit.
func (s *Searcher) Fuzzy(word string, fuzziness uint8) ([]Hit, error) {
	return s.automatonSearch(
		func(seg *segment.Segment) ([]string, error) {
			return seg.FuzzyWords(word, fuzziness)
		},
		func(candidate string) bool {
			return editDistance(word, candidate) <= int(fuzziness)
		},
	)
}

// automatonSearch collects candidate words from segment dictionaries and
// the builder, then resolves them to live hits.
func (s *Searcher) automatonSearch(segFinder segmentWordFinder, builderMatcher wordMatcher) ([]Hit, error) {
	matching := make(map[string]bool)

	for _, segSnap := range s.snapshot.Segments() {
		words, err := segFinder(segSnap.Segment())
		if err != nil {
			return nil, err
		}
		for _, word := range words {
			matching[word] = true
		}
	}

	if builder := s.snapshot.Builder(); builder != nil {
		for word := range builder.Words {
			if builderMatcher(word) {
				matching[word] = true
			}
		}
	}

	if len(matching) == 0 {
		return nil, nil
	}

	words := make([]string, 0, len(matching))
	for word := range matching {
		words = append(words, word)
	}
	return s.hits(words)
}
