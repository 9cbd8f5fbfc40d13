package membuffer_test

import (
	"fmt"
	"sync"
	"testing"

	"kvdb/internal/membuffer"
)

func Test_Put_Then_Get_Returns_Present_Value(t *testing.T) {
	t.Parallel()

	b := membuffer.New()
	b.Put([]byte("hello"), []byte("world"))

	v, ok := b.Get([]byte("hello"))
	if !ok {
		t.Fatalf("Get() ok = false, want true")
	}

	if !v.IsPresent() || string(v.Bytes) != "world" {
		t.Fatalf("Get() = %+v, want Present(world)", v)
	}
}

func Test_Get_Missing_Key_Returns_Not_Found(t *testing.T) {
	t.Parallel()

	b := membuffer.New()

	_, ok := b.Get([]byte("missing"))
	if ok {
		t.Fatalf("Get() ok = true, want false")
	}
}

func Test_Delete_Shadows_Prior_Put(t *testing.T) {
	t.Parallel()

	b := membuffer.New()
	b.Put([]byte("k"), []byte("v1"))
	b.Delete([]byte("k"))

	v, ok := b.Get([]byte("k"))
	if !ok {
		t.Fatalf("Get() ok = false after delete, want true (tombstone present)")
	}

	if !v.IsTombstone() {
		t.Fatalf("Get() = %+v, want Tombstone", v)
	}
}

func Test_Size_Grows_On_Put_And_Delete(t *testing.T) {
	t.Parallel()

	b := membuffer.New()
	if b.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", b.Size())
	}

	b.Put([]byte("ab"), []byte("cde")) // +5
	if b.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", b.Size())
	}

	b.Delete([]byte("xy")) // +2
	if b.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", b.Size())
	}
}

func Test_Size_Overcounts_On_Replace(t *testing.T) {
	t.Parallel()

	// Deliberate simplification per spec: size is never reclaimed on overwrite.
	b := membuffer.New()
	b.Put([]byte("k"), []byte("aaaa"))
	b.Put([]byte("k"), []byte("b"))

	want := (1 + 4) + (1 + 1)
	if b.Size() != want {
		t.Fatalf("Size() = %d, want %d (both puts counted)", b.Size(), want)
	}
}

func Test_IsEmpty_True_For_New_Buffer_False_After_Write(t *testing.T) {
	t.Parallel()

	b := membuffer.New()
	if !b.IsEmpty() {
		t.Fatalf("IsEmpty() = false for new buffer, want true")
	}

	b.Put([]byte("k"), []byte("v"))

	if b.IsEmpty() {
		t.Fatalf("IsEmpty() = true after Put, want false")
	}
}

func Test_Each_Visits_All_Entries(t *testing.T) {
	t.Parallel()

	b := membuffer.New()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	b.Delete([]byte("c"))

	seen := map[string]bool{}
	b.Each(func(e membuffer.Entry) {
		seen[string(e.Key)] = true
	})

	if len(seen) != 3 || !seen["a"] || !seen["b"] || !seen["c"] {
		t.Fatalf("Each visited %v, want a,b,c", seen)
	}
}

func Test_Concurrent_Put_Get_Delete_Is_Race_Free(t *testing.T) {
	t.Parallel()

	b := membuffer.New()

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			key := []byte(fmt.Sprintf("key-%d", i))
			b.Put(key, []byte("v"))
			_, _ = b.Get(key)

			if i%2 == 0 {
				b.Delete(key)
			}
		}(i)
	}

	wg.Wait()

	if b.Size() <= 0 {
		t.Fatalf("Size() = %d, want > 0", b.Size())
	}
}
