package corpus

import (
	"errors"
	"fmt"
	"os"

	"harshagw/wordfreq/internal/freq"
	"harshagw/wordfreq/internal/segment"
	"harshagw/wordfreq/internal/store"
)

// ErrNothingToMerge is returned when fewer than two segments are selected.
var ErrNothingToMerge = errors.New("need at least 2 segments to merge")

// Merge rewrites the given segments as one, dropping deleted texts.
// Buffered changes are flushed first.
func (c *Corpus) Merge(segmentIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.mergeInternal(segmentIDs)
}

// ForceMerge merges every segment into one.
func (c *Corpus) ForceMerge() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.flushInternal(); err != nil {
		return err
	}
	if len(c.segments) < 2 {
		return nil
	}

	ids := make([]string, len(c.segments))
	for i, seg := range c.segments {
		ids[i] = seg.ID()
	}
	return c.mergeInternal(ids)
}

func (c *Corpus) mergeInternal(segmentIDs []string) error {
	if len(segmentIDs) < 2 {
		return ErrNothingToMerge
	}
	if err := c.flushInternal(); err != nil {
		return err
	}

	idSet := make(map[string]bool)
	for _, id := range segmentIDs {
		idSet[id] = true
	}

	var toMerge []*SegmentSnapshot
	for _, seg := range c.segments {
		if idSet[seg.ID()] {
			deleted, err := c.getDeletions(seg.ID())
			if err != nil {
				return err
			}
			toMerge = append(toMerge, &SegmentSnapshot{seg: seg, deleted: deleted})
		}
	}
	if len(toMerge) != len(idSet) {
		return fmt.Errorf("some segments not found")
	}

	builder := segment.NewBuilder()
	for _, ss := range toMerge {
		if err := c.rebuildTexts(ss, builder); err != nil {
			return fmt.Errorf("rebuilding segment %s: %w", ss.ID(), err)
		}
	}

	currentEpoch, err := c.meta.GetEpoch()
	if err != nil {
		return err
	}
	newSegmentID := fmt.Sprintf("%012d", currentEpoch+1)

	segPath, err := builder.Build(c.dir, newSegmentID)
	if err != nil {
		return err
	}

	newSeg, err := segment.Open(segPath, newSegmentID)
	if err != nil {
		os.Remove(segPath)
		return err
	}

	newSegments := make([]*segment.Segment, 0, len(c.segments)-len(toMerge)+1)
	var merged []*segment.Segment
	for _, seg := range c.segments {
		if idSet[seg.ID()] {
			merged = append(merged, seg)
		} else {
			newSegments = append(newSegments, seg)
		}
	}
	newSegments = append(newSegments, newSeg)

	var epoch uint64
	err = c.meta.Update(func(tx *store.Tx) error {
		epoch, err = tx.IncrementEpoch()
		if err != nil {
			return err
		}

		for textNum, info := range builder.Texts {
			if err := tx.SetText(info.Name, newSegmentID, uint64(textNum)); err != nil {
				return err
			}
		}
		for id := range idSet {
			if err := tx.DeleteDeletions(id); err != nil {
				return err
			}
		}

		ids := make([]string, len(newSegments))
		for i, seg := range newSegments {
			ids[i] = seg.ID()
		}
		return tx.SetSegments(ids)
	})
	if err != nil {
		newSeg.Close()
		os.Remove(segPath)
		return err
	}

	c.segments = newSegments
	c.epoch = epoch

	for _, seg := range merged {
		seg.Close()
		os.Remove(seg.Path())
	}
	c.log.Info("segments merged", "merged", len(merged), "segment", newSegmentID, "texts", newSeg.NumTexts())

	return nil
}

// rebuildTexts recovers the word table of every live text in a segment and
// adds them to builder in textNum order.
func (c *Corpus) rebuildTexts(ss *SegmentSnapshot, builder *segment.Builder) error {
	seg := ss.Segment()
	tables := make(map[uint64]*freq.Table)

	err := seg.ForEachWord(ss.Deleted(), func(word string, postings []segment.Posting) error {
		for _, p := range postings {
			table := tables[p.TextNum]
			if table == nil {
				table = freq.New(c.count.ArenaLimit)
				tables[p.TextNum] = table
			}
			if err := table.Add([]byte(word), p.Count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for textNum := uint64(0); textNum < seg.NumTexts(); textNum++ {
		if ss.Deleted().Contains(uint32(textNum)) {
			continue
		}
		name, ok := seg.TextName(textNum)
		if !ok {
			return fmt.Errorf("text %d has no name", textNum)
		}
		table := tables[textNum]
		if table == nil {
			// a text with no words has no postings
			table = freq.New(c.count.ArenaLimit)
		}
		builder.Add(name, table)
	}
	return nil
}
