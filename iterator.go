package lockfree

// Iterator is a forward cursor over the occupied slots of a Map, in
// bucket order. It is a small value type; compare it against End with
// == to detect the end of a traversal:
//
//	for it := m.Begin(); it != m.End(); it = it.Next() {
//		e := it.Entry()
//		...
//	}
//
// Traversal is a live view with the same visibility rules as Range: no
// snapshot, but an observed entry stays observable (entries are never
// deleted and a slot's occupant never changes).
type Iterator[K comparable, V any] struct {
	m      *Map[K, V]
	bucket int
	entry  *Entry[K, V]
}

// Begin returns an iterator positioned at the first occupied slot, or
// End if the map is empty.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	it := Iterator[K, V]{m: m}
	it.scan()
	return it
}

// End returns the past-the-end iterator.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{m: m, bucket: len(m.slots)}
}

// scan advances bucket to the next occupied slot at or after the
// current position, or to the end sentinel if none remains.
func (it *Iterator[K, V]) scan() {
	for it.bucket < len(it.m.slots) {
		if e := it.m.slots[it.bucket].Load(); e != nil {
			it.entry = e
			return
		}
		it.bucket++
	}
	it.entry = nil
}

// Next returns the iterator advanced to the next occupied slot.
// Advancing past End is a no-op.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.bucket < len(it.m.slots) {
		it.bucket++
		it.scan()
	}
	return it
}

// Entry returns the entry at the cursor, or nil at End.
func (it Iterator[K, V]) Entry() *Entry[K, V] {
	return it.entry
}

// ConstIterator is the read-only counterpart of Iterator: identical
// traversal, but it exposes the key and a copy of the value instead of
// the entry itself. For value types with interior synchronization
// (such as Counter) the copy is a plain, unsynchronized read; use the
// mutable iterator when that matters.
type ConstIterator[K comparable, V any] struct {
	it Iterator[K, V]
}

// ConstBegin returns a read-only iterator positioned at the first
// occupied slot, or ConstEnd if the map is empty.
func (m *Map[K, V]) ConstBegin() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: m.Begin()}
}

// ConstEnd returns the past-the-end read-only iterator.
func (m *Map[K, V]) ConstEnd() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: m.End()}
}

// Next returns the iterator advanced to the next occupied slot.
func (it ConstIterator[K, V]) Next() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: it.it.Next()}
}

// Key returns the key of the entry at the cursor.
func (it ConstIterator[K, V]) Key() K {
	return it.it.entry.key
}

// Hash returns the primary hash of the entry at the cursor.
func (it ConstIterator[K, V]) Hash() uint64 {
	return it.it.entry.hash
}

// Value returns a copy of the value at the cursor.
func (it ConstIterator[K, V]) Value() V {
	return it.it.entry.Value
}
