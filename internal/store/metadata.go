// Package store keeps corpus metadata in a BoltDB file: the live segment
// list, the epoch counter, per-segment deletion bitmaps and the registry
// mapping text names to their segment.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/boltdb/bolt"
)

var (
	bucketSegments  = []byte("segments")
	bucketDeletions = []byte("deletions")
	bucketTexts     = []byte("texts")
	bucketMeta      = []byte("meta")
	keySegmentList  = []byte("list")
	keyEpoch        = []byte("epoch")
)

// TextLocation says where a named text lives.
type TextLocation struct {
	SegmentID string `json:"s"`
	TextNum   uint64 `json:"n"`
}

// Metadata is the BoltDB-backed metadata store of a corpus.
type Metadata struct {
	db *bolt.DB
}

// NewMetadata opens or creates the metadata store in dir.
func NewMetadata(dir string) (*Metadata, error) {
	db, err := bolt.Open(filepath.Join(dir, "meta.db"), 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSegments, bucketDeletions, bucketTexts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Metadata{db: db}, nil
}

// GetSegments returns the live segment IDs in creation order.
func (m *Metadata) GetSegments() ([]string, error) {
	var segments []string
	err := m.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSegments).Get(keySegmentList)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &segments)
	})
	return segments, err
}

// GetDeletions returns the deletion bitmap of a segment.
func (m *Metadata) GetDeletions(segmentID string) (*roaring.Bitmap, error) {
	var bm *roaring.Bitmap
	err := m.db.View(func(tx *bolt.Tx) error {
		var err error
		bm, err = readBitmap(tx.Bucket(bucketDeletions).Get([]byte(segmentID)))
		return err
	})
	return bm, err
}

// GetText returns the location of a named text.
func (m *Metadata) GetText(name string) (loc TextLocation, found bool, err error) {
	err = m.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTexts).Get([]byte(name))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &loc)
	})
	return loc, found, err
}

// ForEachText calls fn for every registered text in name order.
func (m *Metadata) ForEachText(fn func(name string, loc TextLocation) error) error {
	return m.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTexts).ForEach(func(k, v []byte) error {
			var loc TextLocation
			if err := json.Unmarshal(v, &loc); err != nil {
				return err
			}
			return fn(string(k), loc)
		})
	})
}

// GetEpoch returns the current epoch.
func (m *Metadata) GetEpoch() (uint64, error) {
	var epoch uint64
	err := m.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketMeta).Get(keyEpoch); data != nil {
			epoch = binary.BigEndian.Uint64(data)
		}
		return nil
	})
	return epoch, err
}

func (m *Metadata) Close() error {
	return m.db.Close()
}

// Update runs fn within a write transaction.
func (m *Metadata) Update(fn func(*Tx) error) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Tx provides write operations within a transaction.
type Tx struct {
	tx *bolt.Tx
}

// SetSegments replaces the live segment list.
func (t *Tx) SetSegments(segmentIDs []string) error {
	data, err := json.Marshal(segmentIDs)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketSegments).Put(keySegmentList, data)
}

// SetDeletions stores the deletion bitmap of a segment.
func (t *Tx) SetDeletions(segmentID string, bm *roaring.Bitmap) error {
	var buf bytes.Buffer
	if _, err := bm.WriteTo(&buf); err != nil {
		return err
	}
	return t.tx.Bucket(bucketDeletions).Put([]byte(segmentID), buf.Bytes())
}

// GetDeletions returns the deletion bitmap of a segment.
func (t *Tx) GetDeletions(segmentID string) (*roaring.Bitmap, error) {
	return readBitmap(t.tx.Bucket(bucketDeletions).Get([]byte(segmentID)))
}

// DeleteDeletions drops the deletion bitmap of a segment.
func (t *Tx) DeleteDeletions(segmentID string) error {
	return t.tx.Bucket(bucketDeletions).Delete([]byte(segmentID))
}

// SetText registers where a named text lives.
func (t *Tx) SetText(name, segmentID string, textNum uint64) error {
	data, err := json.Marshal(TextLocation{SegmentID: segmentID, TextNum: textNum})
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketTexts).Put([]byte(name), data)
}

// DeleteText removes a text from the registry.
func (t *Tx) DeleteText(name string) error {
	return t.tx.Bucket(bucketTexts).Delete([]byte(name))
}

// IncrementEpoch increments and returns the epoch.
func (t *Tx) IncrementEpoch() (uint64, error) {
	b := t.tx.Bucket(bucketMeta)
	var epoch uint64
	if data := b.Get(keyEpoch); data != nil {
		epoch = binary.BigEndian.Uint64(data)
	}
	epoch++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, epoch)
	return epoch, b.Put(keyEpoch, buf)
}

func readBitmap(data []byte) (*roaring.Bitmap, error) {
	bm := roaring.New()
	if data == nil {
		return bm, nil
	}
	_, err := bm.ReadFrom(bytes.NewReader(data))
	return bm, err
}
