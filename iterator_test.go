package lockfree

import (
	"sort"
	"strconv"
	"testing"
)

func TestIteratorEmpty(t *testing.T) {
	m := New[string, int](8)
	if m.Begin() != m.End() {
		t.Fatal("Begin != End on empty map")
	}
	if m.ConstBegin() != m.ConstEnd() {
		t.Fatal("ConstBegin != ConstEnd on empty map")
	}
}

func TestIteratorCompleteness(t *testing.T) {
	const n = 20

	m := New[string, int](64)
	want := make(map[string]int)
	for i := 0; i < n; i++ {
		key := strconv.Itoa(i)
		if _, inserted := m.LoadOrStore(key, i); !inserted {
			t.Fatalf("insert %q failed", key)
		}
		want[key] = i
	}

	got := make(map[string]int)
	for it := m.Begin(); it != m.End(); it = it.Next() {
		e := it.Entry()
		if _, dup := got[e.Key()]; dup {
			t.Fatalf("key %q yielded twice", e.Key())
		}
		got[e.Key()] = e.Value
	}
	if len(got) != n {
		t.Fatalf("iterated %d entries, want %d", len(got), n)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %q: got %d, want %d", k, got[k], v)
		}
	}
}

func TestIteratorBucketOrder(t *testing.T) {
	m := NewWithHasher[int, int](
		8,
		func(k int) uint64 { return uint64(k) },
		nil,
	)
	for _, k := range []int{5, 2} {
		if _, inserted := m.LoadOrStore(k, k*10); !inserted {
			t.Fatalf("insert %d failed", k)
		}
	}

	var keys []int
	for it := m.Begin(); it != m.End(); it = it.Next() {
		keys = append(keys, it.Entry().Key())
	}
	if len(keys) != 2 || keys[0] != 2 || keys[1] != 5 {
		t.Fatalf("traversal order: got %v, want [2 5]", keys)
	}
}

func TestIteratorEquality(t *testing.T) {
	m := New[string, int](16)
	m.LoadOrStore("a", 1)
	m.LoadOrStore("b", 2)

	it1, it2 := m.Begin(), m.Begin()
	for it1 != m.End() {
		if it1 != it2 {
			t.Fatal("equally advanced iterators differ")
		}
		it1, it2 = it1.Next(), it2.Next()
	}
	if it2 != m.End() {
		t.Fatal("second iterator did not reach End")
	}
	// advancing past End stays at End
	if it1.Next() != m.End() {
		t.Fatal("Next past End moved the iterator")
	}
}

// An entry published ahead of the cursor's position is observed by an
// iterator that was created before the publish.
func TestIteratorLiveView(t *testing.T) {
	m := NewWithHasher[int, int](
		8,
		func(k int) uint64 { return uint64(k) },
		nil,
	)
	m.LoadOrStore(1, 10)

	it := m.Begin()
	if it.Entry().Key() != 1 {
		t.Fatalf("first entry: got key %d, want 1", it.Entry().Key())
	}

	m.LoadOrStore(6, 60)

	it = it.Next()
	if it == m.End() {
		t.Fatal("entry published ahead of the cursor was not observed")
	}
	if e := it.Entry(); e.Key() != 6 || e.Value != 60 {
		t.Fatalf("late entry: key=%d value=%d", e.Key(), e.Value)
	}
}

func TestConstIterator(t *testing.T) {
	m := New[string, int](32)
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		m.LoadOrStore(k, v)
	}

	got := make(map[string]int)
	for it := m.ConstBegin(); it != m.ConstEnd(); it = it.Next() {
		got[it.Key()] = it.Value()
	}
	if len(got) != len(want) {
		t.Fatalf("iterated %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %q: got %d, want %d", k, got[k], v)
		}
	}

	// a write through the mutable iterator is visible to const reads
	for it := m.Begin(); it != m.End(); it = it.Next() {
		it.Entry().Value++
	}
	for it := m.ConstBegin(); it != m.ConstEnd(); it = it.Next() {
		if it.Value() != want[it.Key()]+1 {
			t.Fatalf("key %q: got %d, want %d", it.Key(), it.Value(), want[it.Key()]+1)
		}
	}
}

func TestMapRange(t *testing.T) {
	m := New[int, int](32)
	var want []int
	for i := 0; i < 10; i++ {
		m.LoadOrStore(i, i)
		want = append(want, i)
	}

	var got []int
	m.Range(func(e *Entry[int, int]) bool {
		got = append(got, e.Key())
		return true
	})
	sort.Ints(got)
	if len(got) != len(want) {
		t.Fatalf("Range yielded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Range keys: got %v, want %v", got, want)
		}
	}

	// early stop
	n := 0
	m.Range(func(*Entry[int, int]) bool {
		n++
		return n < 3
	})
	if n != 3 {
		t.Fatalf("Range after early stop visited %d entries, want 3", n)
	}

	// range-over-func form
	n = 0
	for range m.All() {
		n++
	}
	if n != 10 {
		t.Fatalf("All visited %d entries, want 10", n)
	}
}
