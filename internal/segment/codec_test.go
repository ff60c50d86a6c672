package segment

import (
	"reflect"
	"testing"

	"github.com/RoaringBitmap/roaring"
)

func TestEncodeDecodePostings_Empty(t *testing.T) {
	encoded := EncodePostings([]Posting{})
	decoded, err := DecodePostings(encoded)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty, got %d postings", len(decoded))
	}
}

func TestEncodeDecodePostings_DeltaEncoding(t *testing.T) {
	// TextNums 1000, 1001, 2000 - tests delta encoding with large gaps
	postings := []Posting{
		{TextNum: 1000, Count: 1},
		{TextNum: 1001, Count: 7},
		{TextNum: 2000, Count: 300},
	}
	decoded, err := DecodePostings(EncodePostings(postings))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !reflect.DeepEqual(decoded, postings) {
		t.Errorf("got %v, want %v", decoded, postings)
	}
}

func TestDecodePostings_Truncated(t *testing.T) {
	encoded := EncodePostings([]Posting{{TextNum: 1, Count: 2}, {TextNum: 5, Count: 3}})
	if _, err := DecodePostings(encoded[:len(encoded)-1]); err == nil {
		t.Error("expected error for truncated postings")
	}
}

func TestDecodePostingsBitmap_AllTexts(t *testing.T) {
	postings := []Posting{
		{TextNum: 1, Count: 4},
		{TextNum: 5, Count: 1},
		{TextNum: 10, Count: 2},
	}
	bm, err := DecodePostingsBitmap(EncodePostings(postings), nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !bm.Contains(1) || !bm.Contains(5) || !bm.Contains(10) {
		t.Error("bitmap missing expected text numbers")
	}
	if bm.GetCardinality() != 3 {
		t.Errorf("cardinality: got %d, want 3", bm.GetCardinality())
	}
}

func TestDecodePostingsBitmap_ExcludesDeleted(t *testing.T) {
	postings := []Posting{
		{TextNum: 1, Count: 1},
		{TextNum: 5, Count: 1},
		{TextNum: 10, Count: 1},
	}
	deleted := newTestBitmap(5)

	bm, err := DecodePostingsBitmap(EncodePostings(postings), deleted)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if bm.Contains(5) {
		t.Error("deleted text 5 should be excluded")
	}
	if bm.GetCardinality() != 2 {
		t.Errorf("cardinality: got %d, want 2", bm.GetCardinality())
	}
}

func TestOneHit(t *testing.T) {
	val := EncodeOneHit(42)
	if !IsOneHit(val) {
		t.Fatal("expected one-hit flag")
	}
	if DecodeOneHit(val) != 42 {
		t.Errorf("got %d, want 42", DecodeOneHit(val))
	}
	if IsOneHit(42) {
		t.Error("plain offset reported as one-hit")
	}
}

func TestPrefixSuccessor(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte("abc"), []byte("abd")},
		{[]byte("ab\xff"), []byte("ac")},
		{[]byte("\xff\xff"), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := prefixSuccessor(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("prefixSuccessor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestBitmap(vals ...uint32) *roaring.Bitmap {
	bm := roaring.New()
	for _, v := range vals {
		bm.Add(v)
	}
	return bm
}
