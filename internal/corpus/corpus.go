// Package corpus keeps word counts for a collection of named texts on disk.
// Texts are counted with the streaming counter, buffered in a segment
// builder and flushed to immutable segments tracked in a metadata store.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/errgroup"

	"harshagw/wordfreq/internal/counter"
	"harshagw/wordfreq/internal/freq"
	"harshagw/wordfreq/internal/logging"
	"harshagw/wordfreq/internal/segment"
	"harshagw/wordfreq/internal/store"
)

var (
	// ErrClosed is returned by operations on a closed corpus.
	ErrClosed = errors.New("corpus is closed")

	// ErrTextNotFound is returned when removing a text that is not live.
	ErrTextNotFound = errors.New("text not found")
)

type Corpus struct {
	mu sync.RWMutex

	dir              string
	meta             *store.Metadata
	segments         []*segment.Segment
	builder          *segment.Builder
	epoch            uint64
	pendingDeletions map[string]*roaring.Bitmap
	pendingRemovals  map[string]bool

	count          counter.Config
	flushThreshold int
	workers        int
	log            *slog.Logger

	closed bool
}

type Config struct {
	Dir            string
	FlushThreshold int // texts buffered before an automatic flush
	Workers        int // files counted concurrently by AddFiles
	Count          counter.Config
}

func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		FlushThreshold: 100,
		Workers:        4,
		Count:          counter.DefaultConfig(),
	}
}

// New creates or opens a corpus at the given directory.
func New(config Config) (*Corpus, error) {
	if err := config.Count.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}

	meta, err := store.NewMetadata(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	c := &Corpus{
		dir:              config.Dir,
		meta:             meta,
		segments:         make([]*segment.Segment, 0),
		builder:          segment.NewBuilder(),
		pendingDeletions: make(map[string]*roaring.Bitmap),
		pendingRemovals:  make(map[string]bool),
		count:            config.Count,
		flushThreshold:   max(config.FlushThreshold, 1),
		workers:          max(config.Workers, 1),
		log:              logging.WithComponent("corpus"),
	}

	if err := c.loadSegments(); err != nil {
		c.closeSegments()
		meta.Close()
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}

	c.epoch, err = meta.GetEpoch()
	if err != nil {
		c.closeSegments()
		meta.Close()
		return nil, err
	}

	return c, nil
}

// loadSegments opens all segments listed in the metadata store.
func (c *Corpus) loadSegments() error {
	segmentIDs, err := c.meta.GetSegments()
	if err != nil {
		return err
	}

	for _, segID := range segmentIDs {
		seg, err := segment.Open(c.segmentPath(segID), segID)
		if err != nil {
			return fmt.Errorf("failed to open segment %s: %w", segID, err)
		}
		c.segments = append(c.segments, seg)
	}
	return nil
}

func (c *Corpus) segmentPath(segID string) string {
	return filepath.Join(c.dir, segID+".seg")
}

// Add counts the words read from r and stores them under name, replacing
// any live text with the same name. Nothing is stored if counting fails.
func (c *Corpus) Add(name string, r io.Reader) error {
	table, err := counter.Count(r, c.count)
	if err != nil {
		return fmt.Errorf("counting %s: %w", name, err)
	}
	return c.addTable(name, table)
}

// AddFiles counts the files at paths concurrently and adds them in order,
// each under its path. If any file fails, none are added.
func (c *Corpus) AddFiles(ctx context.Context, paths []string) error {
	tables := make([]*freq.Table, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			table, err := counter.Count(f, c.count)
			if err != nil {
				return fmt.Errorf("counting %s: %w", path, err)
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if err := c.addTable(path, tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Corpus) addTable(name string, table *freq.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.builder.Remove(name)
	if err := c.markObsolete(name); err != nil && !errors.Is(err, ErrTextNotFound) {
		return err
	}
	c.builder.Add(name, table)
	c.log.Debug("text added", "name", name, "words", table.Total(), "distinct", table.Len())

	if c.builder.NumTexts() >= uint64(c.flushThreshold) {
		return c.flushInternal()
	}
	return nil
}

// Remove deletes the live text with the given name.
func (c *Corpus) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	inBuilder := c.builder.Remove(name)
	if err := c.markObsolete(name); err != nil {
		if errors.Is(err, ErrTextNotFound) && inBuilder {
			return nil
		}
		return err
	}
	return nil
}

// markObsolete marks the persisted copy of name as deleted and schedules
// its registry entry for removal. It returns ErrTextNotFound when no live
// persisted copy exists.
func (c *Corpus) markObsolete(name string) error {
	loc, found, err := c.meta.GetText(name)
	if err != nil {
		return err
	}
	if !found || c.pendingRemovals[name] {
		return ErrTextNotFound
	}

	deleted, err := c.getDeletions(loc.SegmentID)
	if err != nil {
		return err
	}
	if deleted.Contains(uint32(loc.TextNum)) {
		return ErrTextNotFound
	}

	if c.pendingDeletions[loc.SegmentID] == nil {
		c.pendingDeletions[loc.SegmentID] = roaring.New()
	}
	c.pendingDeletions[loc.SegmentID].Add(uint32(loc.TextNum))
	c.pendingRemovals[name] = true
	return nil
}
