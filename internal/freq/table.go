// Package freq implements the word frequency table. Keys live in an arena
// owned by the table, so no key outlives it and none is freed on its own.
package freq

// Entry is a word and the number of times it was seen.
type Entry struct {
	Word  string
	Count uint64
}

// Table maps words to occurrence counts. Entries are never removed.
// A Table is not safe for concurrent use.
type Table struct {
	index  map[string]int // word -> position in counts; keys live in arena
	words  []string
	counts []uint64
	arena  *Arena
	total  uint64
}

// New creates an empty table whose arena holds at most limit key bytes.
// A limit of 0 means no limit.
func New(limit int) *Table {
	return &Table{
		index: make(map[string]int),
		arena: NewArena(DefaultBlockSize, limit),
	}
}

// Increment records one occurrence of word. The bytes are copied when the
// word is new, so callers may reuse word afterwards.
func (t *Table) Increment(word []byte) error {
	return t.Add(word, 1)
}

// Add records n occurrences of word. A word already in the table is only
// looked up, never stored again.
func (t *Table) Add(word []byte, n uint64) error {
	if n == 0 {
		return nil
	}
	if i, ok := t.index[string(word)]; ok {
		t.counts[i] += n
		t.total += n
		return nil
	}

	key, err := t.arena.Alloc(word)
	if err != nil {
		return err
	}
	t.index[key] = len(t.counts)
	t.words = append(t.words, key)
	t.counts = append(t.counts, n)
	t.total += n
	return nil
}

// Merge adds every entry of other into t.
func (t *Table) Merge(other *Table) error {
	for i, word := range other.words {
		if err := t.Add([]byte(word), other.counts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the count for word, or 0 if it was never seen.
func (t *Table) Count(word string) uint64 {
	if i, ok := t.index[word]; ok {
		return t.counts[i]
	}
	return 0
}

// Len returns the number of distinct words.
func (t *Table) Len() int { return len(t.counts) }

// Total returns the sum of all counts.
func (t *Table) Total() uint64 { return t.total }

// ArenaBytes returns the number of key bytes held by the arena.
func (t *Table) ArenaBytes() int { return t.arena.Used() }

// Entries returns a snapshot of the table in insertion order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, len(t.counts))
	for i, n := range t.counts {
		entries[i] = Entry{Word: t.words[i], Count: n}
	}
	return entries
}
