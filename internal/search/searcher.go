// Package search answers word queries against a corpus snapshot.
package search

import (
	"slices"

	"harshagw/wordfreq/internal/corpus"
	"harshagw/wordfreq/internal/freq"
	"harshagw/wordfreq/internal/rank"
	"harshagw/wordfreq/internal/segment"
)

// Hit is one word with its live count and the texts it occurs in.
type Hit struct {
	Word  string
	Count uint64
	Texts []string // sorted by name
}

// Searcher performs searches on a corpus snapshot.
type Searcher struct {
	snapshot *corpus.Snapshot
}

// New creates a new searcher for a snapshot.
func New(snapshot *corpus.Snapshot) *Searcher {
	return &Searcher{snapshot: snapshot}
}

// Close releases searcher resources.
func (s *Searcher) Close() error {
	return nil
}

// Word returns the count of word and the texts containing it. A word that
// does not occur gives a zero Hit.
func (s *Searcher) Word(word string) (Hit, error) {
	hit := Hit{Word: word}

	for _, segSnap := range s.snapshot.Segments() {
		seg := segSnap.Segment()
		postings, err := segSnap.Lookup(word)
		if err != nil {
			return Hit{}, err
		}
		for _, p := range postings {
			name, ok := seg.TextName(p.TextNum)
			if !ok {
				continue
			}
			hit.Count += p.Count
			hit.Texts = append(hit.Texts, name)
		}
	}

	if builder := s.snapshot.Builder(); builder != nil {
		for _, p := range builder.Lookup(word) {
			hit.Count += p.Count
			hit.Texts = append(hit.Texts, builder.Texts[p.TextNum].Name)
		}
	}

	slices.Sort(hit.Texts)
	return hit, nil
}

// WordIn is Word restricted to the named texts. Unknown names are ignored.
func (s *Searcher) WordIn(word string, names ...string) (Hit, error) {
	hit := Hit{Word: word}

	for _, segSnap := range s.snapshot.Segments() {
		seg := segSnap.Segment()
		allowed := seg.TextNumbers(names)
		if allowed.IsEmpty() {
			continue
		}
		postings, err := segSnap.Lookup(word)
		if err != nil {
			return Hit{}, err
		}
		for _, p := range postings {
			if !allowed.Contains(uint32(p.TextNum)) {
				continue
			}
			name, _ := seg.TextName(p.TextNum)
			hit.Count += p.Count
			hit.Texts = append(hit.Texts, name)
		}
	}

	if builder := s.snapshot.Builder(); builder != nil {
		for _, p := range builder.Lookup(word) {
			name := builder.Texts[p.TextNum].Name
			if slices.Contains(names, name) {
				hit.Count += p.Count
				hit.Texts = append(hit.Texts, name)
			}
		}
	}

	slices.Sort(hit.Texts)
	return hit, nil
}

// Ranked merges the counts of every live text into one table and returns
// its entries ranked.
func (s *Searcher) Ranked() ([]freq.Entry, error) {
	table := freq.New(0)

	for _, segSnap := range s.snapshot.Segments() {
		err := segSnap.Segment().ForEachWord(segSnap.Deleted(), func(word string, postings []segment.Posting) error {
			var n uint64
			for _, p := range postings {
				n += p.Count
			}
			return table.Add([]byte(word), n)
		})
		if err != nil {
			return nil, err
		}
	}

	if builder := s.snapshot.Builder(); builder != nil {
		for word := range builder.Words {
			var n uint64
			for _, p := range builder.Lookup(word) {
				n += p.Count
			}
			if err := table.Add([]byte(word), n); err != nil {
				return nil, err
			}
		}
	}

	return rank.Rank(table.Entries()), nil
}

// hits looks up every word and returns the hits ranked by count, then word.
// Words with no live occurrence are dropped.
func (s *Searcher) hits(words []string) ([]Hit, error) {
	byWord := make(map[string]Hit, len(words))
	entries := make([]freq.Entry, 0, len(words))
	for _, word := range words {
		if _, ok := byWord[word]; ok {
			continue
		}
		hit, err := s.Word(word)
		if err != nil {
			return nil, err
		}
		if hit.Count == 0 {
			continue
		}
		byWord[word] = hit
		entries = append(entries, freq.Entry{Word: word, Count: hit.Count})
	}

	ranked := rank.Rank(entries)
	hits := make([]Hit, len(ranked))
	for i, e := range ranked {
		hits[i] = byWord[e.Word]
	}
	return hits, nil
}
