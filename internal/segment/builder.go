package segment

import (
	"encoding/binary"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/RoaringBitmap/roaring"

	"harshagw/wordfreq/internal/freq"
)

// Builder accumulates counted texts before flushing to an immutable segment.
type Builder struct {
	Words   map[string][]Posting // word -> postings in textNum order
	Texts   []TextInfo           // stored summaries by textNum
	Deleted *roaring.Bitmap      // removed textNums

	numTexts uint64
}

// NewBuilder creates an empty segment builder.
func NewBuilder() *Builder {
	return &Builder{
		Words:   make(map[string][]Posting),
		Texts:   make([]TextInfo, 0),
		Deleted: roaring.New(),
	}
}

// Clone returns a copy that later Add and Remove calls on b do not affect.
// Posting slices share backing arrays with b but are clipped, and b only
// ever appends past them.
func (b *Builder) Clone() *Builder {
	words := maps.Clone(b.Words)
	for w, postings := range words {
		words[w] = slices.Clip(postings)
	}
	return &Builder{
		Words:    words,
		Texts:    slices.Clip(b.Texts),
		Deleted:  b.Deleted.Clone(),
		numTexts: b.numTexts,
	}
}

// Add records the counts of one text and returns its textNum.
func (b *Builder) Add(name string, table *freq.Table) uint64 {
	textNum := b.numTexts
	b.numTexts++

	b.Texts = append(b.Texts, TextInfo{
		Name:     name,
		Words:    table.Total(),
		Distinct: table.Len(),
	})

	for _, e := range table.Entries() {
		b.Words[e.Word] = append(b.Words[e.Word], Posting{TextNum: textNum, Count: e.Count})
	}

	return textNum
}

// Remove marks the live text with the given name as deleted. Returns true
// if found.
func (b *Builder) Remove(name string) bool {
	for i, t := range b.Texts {
		if t.Name == name && !b.Deleted.Contains(uint32(i)) {
			b.Deleted.Add(uint32(i))
			return true
		}
	}
	return false
}

// IsDeleted checks if a textNum is deleted.
func (b *Builder) IsDeleted(textNum uint64) bool {
	return b.Deleted.Contains(uint32(textNum))
}

// NumTexts returns the number of live texts in the builder.
func (b *Builder) NumTexts() uint64 {
	return b.numTexts - b.Deleted.GetCardinality()
}

// TotalTexts returns the number of texts including deleted ones.
func (b *Builder) TotalTexts() uint64 {
	return b.numTexts
}

// Lookup returns the live postings of word.
func (b *Builder) Lookup(word string) []Posting {
	postings := b.Words[word]
	if b.Deleted.IsEmpty() {
		return postings
	}
	live := make([]Posting, 0, len(postings))
	for _, p := range postings {
		if !b.IsDeleted(p.TextNum) {
			live = append(live, p)
		}
	}
	return live
}

// Build writes the segment to disk and returns the segment path.
func (b *Builder) Build(dir, segmentID string) (string, error) {
	segPath := filepath.Join(dir, segmentID+".seg")
	tmpPath := segPath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// Write header
	if _, err := file.WriteString(SegmentMagic); err != nil {
		return "", err
	}
	if err := binary.Write(file, binary.BigEndian, SegmentVersion); err != nil {
		return "", err
	}
	if err := binary.Write(file, binary.BigEndian, b.TotalTexts()); err != nil {
		return "", err
	}

	textsOffset, _ := file.Seek(0, 1)
	chunkOffsets, err := b.writeTexts(file)
	if err != nil {
		return "", err
	}

	dict, err := b.writeDictionary(file)
	if err != nil {
		return "", err
	}

	names := make([]string, len(b.Texts))
	var total uint64
	for i, t := range b.Texts {
		names[i] = t.Name
		total += t.Words
	}

	footerOffset, _ := file.Seek(0, 1)
	footer := Footer{
		TextsOffset:    uint64(textsOffset),
		ChunkOffsets:   chunkOffsets,
		PostingsOffset: dict.postingsOffset,
		PostingsSize:   dict.postingsSize,
		DictOffset:     dict.dictOffset,
		DictSize:       dict.dictSize,
		Names:          names,
		NumTexts:       b.TotalTexts(),
		NumWords:       uint64(len(b.Words)),
		TotalWords:     total,
	}
	footerData, err := json.Marshal(footer)
	if err != nil {
		return "", err
	}
	if _, err := file.Write(footerData); err != nil {
		return "", err
	}

	if err := binary.Write(file, binary.BigEndian, uint64(footerOffset)); err != nil {
		return "", err
	}
	if err := binary.Write(file, binary.BigEndian, uint64(len(footerData))); err != nil {
		return "", err
	}

	if err := file.Sync(); err != nil {
		return "", err
	}
	file.Close()

	if err := os.Rename(tmpPath, segPath); err != nil {
		return "", err
	}

	return segPath, nil
}
