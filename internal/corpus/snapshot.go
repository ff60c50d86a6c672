package corpus

import (
	"github.com/RoaringBitmap/roaring"

	"harshagw/wordfreq/internal/segment"
)

// SegmentSnapshot is a segment paired with its deletion bitmap.
type SegmentSnapshot struct {
	seg     *segment.Segment
	deleted *roaring.Bitmap
}

// Segment returns the underlying segment.
func (s *SegmentSnapshot) Segment() *segment.Segment { return s.seg }

// Deleted returns the deletion bitmap.
func (s *SegmentSnapshot) Deleted() *roaring.Bitmap { return s.deleted }

func (s *SegmentSnapshot) ID() string { return s.seg.ID() }

// Lookup returns the live postings of word.
func (s *SegmentSnapshot) Lookup(word string) ([]segment.Posting, error) {
	return s.seg.Lookup(word, s.deleted)
}

// TextsWith returns the live textNums containing word.
func (s *SegmentSnapshot) TextsWith(word string) (*roaring.Bitmap, error) {
	return s.seg.TextsWith(word, s.deleted)
}

// Snapshot is a point-in-time view of the corpus for queries.
type Snapshot struct {
	segments []*SegmentSnapshot
	builder  *segment.Builder
	epoch    uint64
}

func (s *Snapshot) Segments() []*SegmentSnapshot { return s.segments }

// Builder returns a frozen copy of the in-memory builder taken with the snapshot.
func (s *Snapshot) Builder() *segment.Builder { return s.builder }

func (s *Snapshot) Epoch() uint64 { return s.epoch }

// TotalTexts returns the number of live texts.
func (s *Snapshot) TotalTexts() uint64 {
	var total uint64
	for _, seg := range s.segments {
		total += seg.seg.NumTexts() - seg.deleted.GetCardinality()
	}
	if s.builder != nil {
		total += s.builder.NumTexts()
	}
	return total
}

// TotalWords returns the number of words counted across live texts.
func (s *Snapshot) TotalWords() (uint64, error) {
	var total uint64
	for _, seg := range s.segments {
		total += seg.seg.TotalWords()
		it := seg.deleted.Iterator()
		for it.HasNext() {
			info, err := seg.seg.LoadText(uint64(it.Next()))
			if err != nil {
				return 0, err
			}
			total -= info.Words
		}
	}
	if s.builder != nil {
		for textNum, info := range s.builder.Texts {
			if !s.builder.IsDeleted(uint64(textNum)) {
				total += info.Words
			}
		}
	}
	return total, nil
}
