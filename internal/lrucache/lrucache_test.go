package lrucache_test

import (
	"testing"

	"kvdb/internal/lrucache"
)

// fakeHandle is a closeable test double standing in for a generation reader.
type fakeHandle struct {
	name   string
	closed bool
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func Test_Put_Then_Get_Returns_Value(t *testing.T) {
	t.Parallel()

	c := lrucache.New(2)
	h := &fakeHandle{name: "a"}
	c.Put(1, h)

	got, ok := c.Get(1)
	if !ok {
		t.Fatalf("Get(1) ok = false, want true")
	}

	if got.(*fakeHandle).name != "a" { //nolint:forcetypeassert
		t.Fatalf("Get(1) = %+v, want handle a", got)
	}
}

func Test_Get_Missing_Returns_False(t *testing.T) {
	t.Parallel()

	c := lrucache.New(2)

	_, ok := c.Get(99)
	if ok {
		t.Fatalf("Get(99) ok = true, want false")
	}
}

func Test_Eviction_Removes_Least_Recently_Used(t *testing.T) {
	t.Parallel()

	c := lrucache.New(2)

	a := &fakeHandle{name: "a"}
	b := &fakeHandle{name: "b"}
	cc := &fakeHandle{name: "c"}

	c.Put(1, a)
	c.Put(2, b)
	c.Put(3, cc) // capacity 2: evicts 1 (least recently used)

	if _, ok := c.Get(1); ok {
		t.Fatalf("Get(1) ok = true after eviction, want false")
	}

	if !a.closed {
		t.Fatalf("evicted handle a.closed = false, want true")
	}

	if _, ok := c.Get(2); !ok {
		t.Fatalf("Get(2) ok = false, want true (not evicted)")
	}

	if _, ok := c.Get(3); !ok {
		t.Fatalf("Get(3) ok = false, want true (not evicted)")
	}
}

func Test_Get_Refreshes_Recency_Protecting_From_Eviction(t *testing.T) {
	t.Parallel()

	c := lrucache.New(2)

	a := &fakeHandle{name: "a"}
	b := &fakeHandle{name: "b"}
	cc := &fakeHandle{name: "c"}

	c.Put(1, a)
	c.Put(2, b)

	// Touch 1, making 2 the least-recently-used entry.
	if _, ok := c.Get(1); !ok {
		t.Fatalf("Get(1) ok = false, want true")
	}

	c.Put(3, cc) // should now evict 2, not 1

	if _, ok := c.Get(2); ok {
		t.Fatalf("Get(2) ok = true after eviction, want false")
	}

	if !b.closed {
		t.Fatalf("evicted handle b.closed = false, want true")
	}

	if _, ok := c.Get(1); !ok {
		t.Fatalf("Get(1) ok = false, want true (protected by recency)")
	}
}

func Test_Capacity_Never_Exceeded(t *testing.T) {
	t.Parallel()

	const capacity = 4

	c := lrucache.New(capacity)

	for i := range uint64(100) {
		c.Put(i, &fakeHandle{})

		if c.Len() > capacity {
			t.Fatalf("Len() = %d after Put(%d), want <= %d", c.Len(), i, capacity)
		}
	}

	if c.Len() != capacity {
		t.Fatalf("Len() = %d, want %d", c.Len(), capacity)
	}
}

func Test_Put_Replacing_Existing_Key_Closes_Prior_Handle(t *testing.T) {
	t.Parallel()

	c := lrucache.New(2)

	old := &fakeHandle{name: "old"}
	c.Put(1, old)

	replacement := &fakeHandle{name: "new"}
	c.Put(1, replacement)

	if !old.closed {
		t.Fatalf("replaced handle.closed = false, want true")
	}

	got, ok := c.Get(1)
	if !ok || got.(*fakeHandle).name != "new" { //nolint:forcetypeassert
		t.Fatalf("Get(1) = %+v, %v, want new handle", got, ok)
	}

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (replace must not grow the cache)", c.Len())
	}
}

func Test_Close_Releases_All_Entries(t *testing.T) {
	t.Parallel()

	c := lrucache.New(3)

	handles := []*fakeHandle{{name: "a"}, {name: "b"}, {name: "c"}}
	for i, h := range handles {
		c.Put(uint64(i), h)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, h := range handles {
		if !h.closed {
			t.Fatalf("handle %s.closed = false after Cache.Close(), want true", h.name)
		}
	}

	if c.Len() != 0 {
		t.Fatalf("Len() after Close() = %d, want 0", c.Len())
	}
}
