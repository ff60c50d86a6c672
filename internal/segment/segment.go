package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/couchbase/vellum"
	"github.com/edsrzf/mmap-go"
	"github.com/golang/snappy"
)

// Segment represents an immutable, mmap'd segment.
type Segment struct {
	id     string
	path   string
	file   *os.File
	data   mmap.MMap
	footer Footer

	textNums map[string]uint64

	fst     *vellum.FST
	fstOnce sync.Once
	fstErr  error
}

// Open opens an existing segment file with mmap.
func Open(path, segmentID string) (*Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if stat.Size() < int64(len(SegmentMagic)+4+8+16) {
		file.Close()
		return nil, fmt.Errorf("segment file too small: %s", path)
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap segment %s: %w", path, err)
	}

	fail := func(err error) (*Segment, error) {
		data.Unmap()
		file.Close()
		return nil, err
	}

	if string(data[:len(SegmentMagic)]) != SegmentMagic {
		return fail(fmt.Errorf("invalid segment magic: %s", path))
	}
	if v := binary.BigEndian.Uint32(data[len(SegmentMagic):]); v != SegmentVersion {
		return fail(fmt.Errorf("unsupported segment version %d: %s", v, path))
	}

	// Read footer offset and size from end of file
	footerOffset := binary.BigEndian.Uint64(data[len(data)-16 : len(data)-8])
	footerSize := binary.BigEndian.Uint64(data[len(data)-8:])
	if footerOffset+footerSize > uint64(len(data)-16) {
		return fail(fmt.Errorf("segment footer out of range: %s", path))
	}

	var footer Footer
	if err := json.Unmarshal(data[footerOffset:footerOffset+footerSize], &footer); err != nil {
		return fail(fmt.Errorf("failed to parse segment footer: %w", err))
	}

	textNums := make(map[string]uint64, len(footer.Names))
	for i, name := range footer.Names {
		textNums[name] = uint64(i)
	}

	return &Segment{
		id:       segmentID,
		path:     path,
		file:     file,
		data:     data,
		footer:   footer,
		textNums: textNums,
	}, nil
}

// ID returns the segment ID.
func (s *Segment) ID() string { return s.id }

// Path returns the segment file path.
func (s *Segment) Path() string { return s.path }

// NumTexts returns the total number of texts, deleted ones included.
func (s *Segment) NumTexts() uint64 { return s.footer.NumTexts }

// NumWords returns the number of distinct words in the dictionary.
func (s *Segment) NumWords() uint64 { return s.footer.NumWords }

// TotalWords returns the number of words counted across all texts of the
// segment, deleted ones included.
func (s *Segment) TotalWords() uint64 { return s.footer.TotalWords }

// TextName returns the name of a text by textNum.
func (s *Segment) TextName(textNum uint64) (string, bool) {
	if textNum >= s.footer.NumTexts {
		return "", false
	}
	return s.footer.Names[textNum], true
}

// TextNumbers returns a bitmap of textNums for the given names.
func (s *Segment) TextNumbers(names []string) *roaring.Bitmap {
	bm := roaring.New()
	for _, name := range names {
		if n, ok := s.textNums[name]; ok {
			bm.Add(uint32(n))
		}
	}
	return bm
}

// LoadText loads a stored text summary by textNum.
func (s *Segment) LoadText(textNum uint64) (TextInfo, error) {
	if textNum >= s.footer.NumTexts {
		return TextInfo{}, fmt.Errorf("textNum %d out of range", textNum)
	}

	chunkIdx := textNum / ChunkSize
	if int(chunkIdx) >= len(s.footer.ChunkOffsets) {
		return TextInfo{}, fmt.Errorf("chunk index out of range")
	}
	offset := s.footer.ChunkOffsets[chunkIdx]

	chunkLen := binary.BigEndian.Uint32(s.data[offset:])
	compressed := s.data[offset+4 : offset+4+uint64(chunkLen)]

	decompressed, err := snappy.Decode(nil, compressed)
	if err != nil {
		return TextInfo{}, fmt.Errorf("failed to decompress chunk: %w", err)
	}

	var chunk []TextInfo
	if err := json.Unmarshal(decompressed, &chunk); err != nil {
		return TextInfo{}, fmt.Errorf("failed to parse chunk: %w", err)
	}

	inChunk := textNum % ChunkSize
	if int(inChunk) >= len(chunk) {
		return TextInfo{}, fmt.Errorf("text index out of range in chunk")
	}
	return chunk[inChunk], nil
}

// Close releases segment resources.
func (s *Segment) Close() error {
	if s.fst != nil {
		s.fst.Close()
		s.fst = nil
	}
	if s.data != nil {
		s.data.Unmap()
		s.data = nil
	}
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
