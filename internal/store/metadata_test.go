package store

import (
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring"
)

func openTestStore(t *testing.T) *Metadata {
	t.Helper()
	m, err := NewMetadata(t.TempDir())
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMetadata_Empty(t *testing.T) {
	m := openTestStore(t)

	segs, err := m.GetSegments()
	if err != nil || len(segs) != 0 {
		t.Errorf("GetSegments: %v, %v", segs, err)
	}
	epoch, err := m.GetEpoch()
	if err != nil || epoch != 0 {
		t.Errorf("GetEpoch: %d, %v", epoch, err)
	}
	bm, err := m.GetDeletions("nope")
	if err != nil || !bm.IsEmpty() {
		t.Errorf("GetDeletions: %v, %v", bm, err)
	}
	if _, found, err := m.GetText("nope"); found || err != nil {
		t.Errorf("GetText: found %v err %v", found, err)
	}
}

func TestMetadata_Update(t *testing.T) {
	m := openTestStore(t)

	err := m.Update(func(tx *Tx) error {
		if _, err := tx.IncrementEpoch(); err != nil {
			return err
		}
		epoch, err := tx.IncrementEpoch()
		if err != nil {
			return err
		}
		if epoch != 2 {
			t.Errorf("epoch: got %d, want 2", epoch)
		}
		if err := tx.SetSegments([]string{"000000000001", "000000000002"}); err != nil {
			return err
		}
		bm := roaring.New()
		bm.AddMany([]uint32{1, 3})
		if err := tx.SetDeletions("000000000001", bm); err != nil {
			return err
		}
		if err := tx.SetText("b.txt", "000000000002", 0); err != nil {
			return err
		}
		return tx.SetText("a.txt", "000000000001", 4)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	segs, _ := m.GetSegments()
	if !slices.Equal(segs, []string{"000000000001", "000000000002"}) {
		t.Errorf("segments: %v", segs)
	}
	bm, _ := m.GetDeletions("000000000001")
	if !slices.Equal(bm.ToArray(), []uint32{1, 3}) {
		t.Errorf("deletions: %v", bm.ToArray())
	}
	loc, found, _ := m.GetText("a.txt")
	if !found || loc.SegmentID != "000000000001" || loc.TextNum != 4 {
		t.Errorf("GetText: %+v %v", loc, found)
	}

	var names []string
	m.ForEachText(func(name string, _ TextLocation) error {
		names = append(names, name)
		return nil
	})
	if !slices.Equal(names, []string{"a.txt", "b.txt"}) {
		t.Errorf("ForEachText order: %v", names)
	}
}

func TestMetadata_DeleteEntries(t *testing.T) {
	m := openTestStore(t)

	m.Update(func(tx *Tx) error {
		tx.SetText("a.txt", "s1", 0)
		bm := roaring.New()
		bm.Add(0)
		return tx.SetDeletions("s1", bm)
	})
	m.Update(func(tx *Tx) error {
		if err := tx.DeleteText("a.txt"); err != nil {
			return err
		}
		return tx.DeleteDeletions("s1")
	})

	if _, found, _ := m.GetText("a.txt"); found {
		t.Error("text still registered")
	}
	if bm, _ := m.GetDeletions("s1"); !bm.IsEmpty() {
		t.Error("deletions not removed")
	}
}

func TestMetadata_Reopen(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMetadata(dir)
	if err != nil {
		t.Fatal(err)
	}
	m.Update(func(tx *Tx) error {
		_, err := tx.IncrementEpoch()
		return err
	})
	m.Close()

	m, err = NewMetadata(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if epoch, _ := m.GetEpoch(); epoch != 1 {
		t.Errorf("epoch after reopen: %d", epoch)
	}
}
