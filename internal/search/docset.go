package search

import (
	"slices"

	"github.com/RoaringBitmap/roaring"
)

// textSet holds matching texts across all segments and the builder. Each
// bitmap contains textNums local to that segment or builder.
type textSet struct {
	segmentTexts []*roaring.Bitmap
	builderTexts *roaring.Bitmap
}

// wordTexts returns the set of live texts containing word.
func (s *Searcher) wordTexts(word string) (*textSet, error) {
	segments := s.snapshot.Segments()
	ts := &textSet{
		segmentTexts: make([]*roaring.Bitmap, len(segments)),
		builderTexts: roaring.New(),
	}
	for i, segSnap := range segments {
		bm, err := segSnap.TextsWith(word)
		if err != nil {
			return nil, err
		}
		ts.segmentTexts[i] = bm
	}
	if builder := s.snapshot.Builder(); builder != nil {
		for _, p := range builder.Lookup(word) {
			ts.builderTexts.Add(uint32(p.TextNum))
		}
	}
	return ts, nil
}

// Count returns the number of texts in the set.
func (ts *textSet) Count() uint64 {
	count := ts.builderTexts.GetCardinality()
	for _, bm := range ts.segmentTexts {
		count += bm.GetCardinality()
	}
	return count
}

func (ts *textSet) IsEmpty() bool { return ts.Count() == 0 }

// Intersect returns the texts present in both sets.
func (ts *textSet) Intersect(other *textSet) *textSet {
	result := &textSet{
		segmentTexts: make([]*roaring.Bitmap, len(ts.segmentTexts)),
		builderTexts: roaring.And(ts.builderTexts, other.builderTexts),
	}
	for i := range ts.segmentTexts {
		result.segmentTexts[i] = roaring.And(ts.segmentTexts[i], other.segmentTexts[i])
	}
	return result
}

// intersectAll intersects sets, smallest first, stopping early once the
// result is empty.
func intersectAll(sets []*textSet) *textSet {
	if len(sets) == 0 {
		return nil
	}
	slices.SortFunc(sets, func(a, b *textSet) int {
		switch ca, cb := a.Count(), b.Count(); {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})

	result := sets[0]
	for _, ts := range sets[1:] {
		if result.IsEmpty() {
			break
		}
		result = result.Intersect(ts)
	}
	return result
}

// names resolves the set to text names, sorted.
func (s *Searcher) names(ts *textSet) []string {
	var names []string
	for i, segSnap := range s.snapshot.Segments() {
		seg := segSnap.Segment()
		it := ts.segmentTexts[i].Iterator()
		for it.HasNext() {
			if name, ok := seg.TextName(uint64(it.Next())); ok {
				names = append(names, name)
			}
		}
	}
	if builder := s.snapshot.Builder(); builder != nil {
		it := ts.builderTexts.Iterator()
		for it.HasNext() {
			names = append(names, builder.Texts[it.Next()].Name)
		}
	}
	slices.Sort(names)
	return names
}

// All returns the names of the texts containing every one of words.
func (s *Searcher) All(words ...string) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}

	sets := make([]*textSet, 0, len(words))
	for _, word := range words {
		ts, err := s.wordTexts(word)
		if err != nil {
			return nil, err
		}
		if ts.IsEmpty() {
			return nil, nil
		}
		sets = append(sets, ts)
	}
	return s.names(intersectAll(sets)), nil
}
