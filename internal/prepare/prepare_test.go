package prepare

import "testing"

func TestCachePrepareReturnsSameHandleForSameHTML(t *testing.T) {
	c := NewCache()
	h1, err := c.Prepare("<p>hi</p>", "test://a")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	h2, err := c.Prepare("<p>hi</p>", "test://a")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if h1.HandleID != h2.HandleID {
		t.Errorf("expected identical digest to reuse the handle")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache()
	var first *PreparedHandle
	for i := 0; i < MaxEntries+1; i++ {
		h, err := c.Prepare(string(rune('a'+i))+"<p>x</p>", "")
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if i == 0 {
			first = h
		}
	}
	if c.Len() != MaxEntries {
		t.Errorf("expected cache capped at %d entries, got %d", MaxEntries, c.Len())
	}
	if _, ok := c.Get(first.HandleID); ok {
		t.Errorf("expected the first entry to have been evicted")
	}
}

func TestCacheGetByHandleID(t *testing.T) {
	c := NewCache()
	h, _ := c.Prepare("<div></div>", "")
	got, ok := c.Get(h.HandleID)
	if !ok || got.HandleID != h.HandleID {
		t.Errorf("expected to find the prepared handle by ID")
	}
}
