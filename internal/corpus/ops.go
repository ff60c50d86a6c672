package corpus

import (
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"

	"harshagw/wordfreq/internal/segment"
	"harshagw/wordfreq/internal/store"
)

// getDeletions returns the persisted deletions of a segment merged with
// pending ones.
func (c *Corpus) getDeletions(segID string) (*roaring.Bitmap, error) {
	persisted, err := c.meta.GetDeletions(segID)
	if err != nil {
		return nil, err
	}
	if pending := c.pendingDeletions[segID]; pending != nil {
		persisted.Or(pending)
	}
	return persisted, nil
}

// Flush writes buffered texts to a new segment and persists pending
// removals.
func (c *Corpus) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.flushInternal()
}

// flushInternal performs flush without locking.
func (c *Corpus) flushInternal() error {
	if c.builder.TotalTexts() == 0 && len(c.pendingDeletions) == 0 {
		return nil
	}

	currentSegmentIDs, err := c.meta.GetSegments()
	if err != nil {
		return err
	}

	var segmentID, segPath string
	if c.builder.NumTexts() > 0 {
		currentEpoch, err := c.meta.GetEpoch()
		if err != nil {
			return err
		}
		segmentID = fmt.Sprintf("%012d", currentEpoch+1)

		segPath, err = c.builder.Build(c.dir, segmentID)
		if err != nil {
			return err
		}
	}

	var epoch uint64
	err = c.meta.Update(func(tx *store.Tx) error {
		epoch, err = tx.IncrementEpoch()
		if err != nil {
			return err
		}

		for segID, pending := range c.pendingDeletions {
			if pending == nil || pending.IsEmpty() {
				continue
			}
			existing, err := tx.GetDeletions(segID)
			if err != nil {
				return err
			}
			existing.Or(pending)
			if err := tx.SetDeletions(segID, existing); err != nil {
				return err
			}
		}
		for name := range c.pendingRemovals {
			if err := tx.DeleteText(name); err != nil {
				return err
			}
		}

		if segmentID == "" {
			return nil
		}

		if !c.builder.Deleted.IsEmpty() {
			if err := tx.SetDeletions(segmentID, c.builder.Deleted); err != nil {
				return err
			}
		}
		for textNum, info := range c.builder.Texts {
			if c.builder.IsDeleted(uint64(textNum)) {
				continue
			}
			if err := tx.SetText(info.Name, segmentID, uint64(textNum)); err != nil {
				return err
			}
		}
		return tx.SetSegments(append(currentSegmentIDs, segmentID))
	})
	if err != nil {
		if segPath != "" {
			os.Remove(segPath)
		}
		return err
	}

	if segmentID != "" {
		seg, err := segment.Open(segPath, segmentID)
		if err != nil {
			return err
		}
		c.segments = append(c.segments, seg)
		c.log.Info("segment flushed", "segment", segmentID, "texts", c.builder.NumTexts(), "words", seg.NumWords())
	}

	c.epoch = epoch
	c.pendingDeletions = make(map[string]*roaring.Bitmap)
	c.pendingRemovals = make(map[string]bool)
	c.builder = segment.NewBuilder()

	return nil
}

// Snapshot returns a point-in-time view of the corpus. Later calls to Add
// and Remove are not reflected in persisted segments of the snapshot, but
// texts buffered in the builder are shared with it.
func (c *Corpus) Snapshot() (*Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}

	snapshots := make([]*SegmentSnapshot, len(c.segments))
	for i, seg := range c.segments {
		deleted, err := c.getDeletions(seg.ID())
		if err != nil {
			return nil, err
		}
		snapshots[i] = &SegmentSnapshot{seg: seg, deleted: deleted}
	}

	return &Snapshot{
		segments: snapshots,
		builder:  c.builder.Clone(),
		epoch:    c.epoch,
	}, nil
}

// Close closes the corpus and releases resources. Buffered texts that were
// not flushed are dropped.
func (c *Corpus) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.pendingDeletions = nil
	c.pendingRemovals = nil
	c.builder = nil
	c.closeSegments()

	if c.meta != nil {
		return c.meta.Close()
	}
	return nil
}

func (c *Corpus) closeSegments() {
	for _, seg := range c.segments {
		seg.Close()
	}
	c.segments = nil
}

// NumSegments returns the number of segments.
func (c *Corpus) NumSegments() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.segments)
}

// Epoch returns the number of committed metadata updates.
func (c *Corpus) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// SegmentInfo holds info about a segment.
type SegmentInfo struct {
	ID         string
	Path       string
	NumTexts   uint64
	NumDeleted uint64
	NumWords   uint64
}

// Segments returns info about all segments.
func (c *Corpus) Segments() ([]SegmentInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := make([]SegmentInfo, len(c.segments))
	for i, seg := range c.segments {
		deleted, err := c.getDeletions(seg.ID())
		if err != nil {
			return nil, err
		}
		info[i] = SegmentInfo{
			ID:         seg.ID(),
			Path:       seg.Path(),
			NumTexts:   seg.NumTexts(),
			NumDeleted: deleted.GetCardinality(),
			NumWords:   seg.NumWords(),
		}
	}
	return info, nil
}

// TextSummary describes one live text.
type TextSummary struct {
	Name      string
	SegmentID string // empty while the text is only buffered
	Words     uint64
	Distinct  int
}

// Texts lists live texts: persisted ones in name order, then buffered ones
// in the order they were added.
func (c *Corpus) Texts() ([]TextSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}

	byID := make(map[string]*segment.Segment, len(c.segments))
	for _, seg := range c.segments {
		byID[seg.ID()] = seg
	}

	var texts []TextSummary
	err := c.meta.ForEachText(func(name string, loc store.TextLocation) error {
		if c.pendingRemovals[name] {
			return nil
		}
		seg, ok := byID[loc.SegmentID]
		if !ok {
			return fmt.Errorf("text %s refers to unknown segment %s", name, loc.SegmentID)
		}
		info, err := seg.LoadText(loc.TextNum)
		if err != nil {
			return err
		}
		texts = append(texts, TextSummary{
			Name:      name,
			SegmentID: loc.SegmentID,
			Words:     info.Words,
			Distinct:  info.Distinct,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for textNum, info := range c.builder.Texts {
		if c.builder.IsDeleted(uint64(textNum)) {
			continue
		}
		texts = append(texts, TextSummary{Name: info.Name, Words: info.Words, Distinct: info.Distinct})
	}
	return texts, nil
}
