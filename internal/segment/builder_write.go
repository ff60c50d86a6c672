package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"sort"

	"github.com/couchbase/vellum"
	"github.com/golang/snappy"
)

// writeTexts writes chunked, compressed text summaries.
func (b *Builder) writeTexts(file *os.File) ([]uint64, error) {
	var chunkOffsets []uint64

	for i := 0; i < len(b.Texts); i += ChunkSize {
		end := min(i+ChunkSize, len(b.Texts))

		chunkData, err := json.Marshal(b.Texts[i:end])
		if err != nil {
			return nil, err
		}
		compressed := snappy.Encode(nil, chunkData)

		offset, err := file.Seek(0, 1)
		if err != nil {
			return nil, err
		}
		chunkOffsets = append(chunkOffsets, uint64(offset))

		// Write length + compressed data
		if err := binary.Write(file, binary.BigEndian, uint32(len(compressed))); err != nil {
			return nil, err
		}
		if _, err := file.Write(compressed); err != nil {
			return nil, err
		}
	}

	return chunkOffsets, nil
}

type dictLayout struct {
	postingsOffset uint64
	postingsSize   uint64
	dictOffset     uint64
	dictSize       uint64
}

// writeDictionary writes every posting list followed by the FST that maps
// each word to its list.
func (b *Builder) writeDictionary(file *os.File) (dictLayout, error) {
	var layout dictLayout

	words := make([]string, 0, len(b.Words))
	for word := range b.Words {
		words = append(words, word)
	}
	sort.Strings(words)

	postingsStart, err := file.Seek(0, 1)
	if err != nil {
		return layout, err
	}
	layout.postingsOffset = uint64(postingsStart)

	values := make(map[string]uint64, len(words))
	var written uint64
	for _, word := range words {
		postings := b.Words[word]

		if len(postings) == 1 && postings[0].Count == 1 {
			values[word] = EncodeOneHit(postings[0].TextNum)
			continue
		}

		sort.Slice(postings, func(i, j int) bool {
			return postings[i].TextNum < postings[j].TextNum
		})

		values[word] = written
		encoded := EncodePostings(postings)
		if _, err := file.Write(encoded); err != nil {
			return layout, err
		}
		written += uint64(len(encoded))
	}
	layout.postingsSize = written

	dictStart, err := file.Seek(0, 1)
	if err != nil {
		return layout, err
	}
	layout.dictOffset = uint64(dictStart)

	var fstBuf bytes.Buffer
	fstBuilder, err := vellum.New(&fstBuf, nil)
	if err != nil {
		return layout, err
	}
	for _, word := range words {
		if err := fstBuilder.Insert([]byte(word), values[word]); err != nil {
			return layout, err
		}
	}
	if err := fstBuilder.Close(); err != nil {
		return layout, err
	}

	// Write FST size and data
	if err := binary.Write(file, binary.BigEndian, uint64(fstBuf.Len())); err != nil {
		return layout, err
	}
	if _, err := file.Write(fstBuf.Bytes()); err != nil {
		return layout, err
	}
	layout.dictSize = 8 + uint64(fstBuf.Len())

	return layout, nil
}
