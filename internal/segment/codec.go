package segment

import (
	"bytes"
	"encoding/binary"

	"github.com/RoaringBitmap/roaring"
)

// Segment file format constants
const (
	SegmentMagic   = "WFQ\x00"
	SegmentVersion = uint32(1)
	ChunkSize      = 1024 // Texts per stored-info chunk
)

// OneHitFlag - high bit set means the value encodes a single textNum inline
// for a word seen exactly once.
const OneHitFlag = uint64(1 << 63)

// IsOneHit checks if a value uses 1-hit encoding.
func IsOneHit(val uint64) bool {
	return (val & OneHitFlag) != 0
}

// EncodeOneHit encodes a single textNum inline.
func EncodeOneHit(textNum uint64) uint64 {
	return OneHitFlag | textNum
}

// DecodeOneHit extracts the textNum from a 1-hit encoded value.
func DecodeOneHit(val uint64) uint64 {
	return val &^ OneHitFlag
}

// Posting records how many times a word occurs in one text.
type Posting struct {
	TextNum uint64
	Count   uint64
}

// TextInfo is the stored summary of one counted text.
type TextInfo struct {
	Name     string `json:"name"`
	Words    uint64 `json:"words"`
	Distinct int    `json:"distinct"`
}

type Footer struct {
	TextsOffset    uint64   `json:"texts_offset"`
	ChunkOffsets   []uint64 `json:"chunks"`
	PostingsOffset uint64   `json:"postings_offset"`
	PostingsSize   uint64   `json:"postings_size"`
	DictOffset     uint64   `json:"dict_offset"`
	DictSize       uint64   `json:"dict_size"`
	Names          []string `json:"names"`
	NumTexts       uint64   `json:"num_texts"`
	NumWords       uint64   `json:"num_words"`
	TotalWords     uint64   `json:"total_words"`
}

// EncodePostings encodes a posting list: length, delta-encoded textNums,
// then counts.
func EncodePostings(postings []Posting) []byte {
	buf := make([]byte, 0, len(postings)*4+binary.MaxVarintLen64)

	buf = binary.AppendUvarint(buf, uint64(len(postings)))

	var prev uint64
	for _, p := range postings {
		buf = binary.AppendUvarint(buf, p.TextNum-prev)
		prev = p.TextNum
	}
	for _, p := range postings {
		buf = binary.AppendUvarint(buf, p.Count)
	}

	return buf
}

// DecodePostings decodes a posting list.
func DecodePostings(data []byte) ([]Posting, error) {
	r := bytes.NewReader(data)

	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(data)) {
		return nil, errCorruptPostings
	}

	postings := make([]Posting, n)

	var prev uint64
	for i := range postings {
		delta, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		postings[i].TextNum = prev + delta
		prev = postings[i].TextNum
	}

	for i := range postings {
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		postings[i].Count = count
	}

	return postings, nil
}

// DecodePostingsBitmap decodes only the textNums of a posting list into a
// bitmap, skipping deleted texts.
func DecodePostingsBitmap(data []byte, deleted *roaring.Bitmap) (*roaring.Bitmap, error) {
	r := newByteReader(data)

	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}

	bm := roaring.New()
	var prev uint64
	for i := uint64(0); i < n; i++ {
		delta, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		prev += delta
		if deleted != nil && deleted.Contains(uint32(prev)) {
			continue
		}
		bm.Add(uint32(prev))
	}
	return bm, nil
}
