package lockfree

import (
	"sync/atomic"
	"unsafe"
)

// defaultMaxTries bounds the probe sequence of a single operation when
// no explicit limit is configured.
const defaultMaxTries = 32

// Entry is a published (hash, key, value) triple. The hash and key are
// fixed at creation and never change; identity checks during probing
// compare the stored hash only, so two distinct keys sharing a primary
// hash alias the same entry. Callers that need to rule that out compare
// Key against the key they asked for.
type Entry[K comparable, V any] struct {
	hash uint64
	key  K

	// Value is the caller-owned payload. Publication of the entry is
	// synchronized by the map, the value contents are not: if several
	// goroutines mutate Value after publication, V itself must be an
	// internally synchronized type such as Counter.
	Value V
}

// Key returns the key the entry was created with.
func (e *Entry[K, V]) Key() K { return e.key }

// Hash returns the primary hash computed for the key at creation.
func (e *Entry[K, V]) Hash() uint64 { return e.hash }

// Map is a fixed-capacity lock-free hash map supporting concurrent
// insertion and lookup from any number of goroutines without locks.
// Entries cannot be deleted and the table never resizes; collisions are
// resolved by a bounded double-hashing probe sequence and slots are
// published with a single compare-and-swap, so a slot transitions
// empty->occupied at most once and its occupant never changes.
//
// Every operation is non-blocking and bounded: Load and LoadOrStore
// give up after at most maxTries probe attempts and report failure
// instead of looping. Under adversarial hash distributions legitimate
// insertions can therefore fail deterministically; recovering (for
// example by building a larger map) is up to the caller.
//
// Hash values are compared verbatim. Zero is an ordinary hash, and every
// non-matching occupied slot advances the probe cursor through the
// rehash strategy, unconditionally.
//
// A Map must not be copied after first use.
type Map[K comparable, V any] struct {
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		_        noCopy
		slots    []unsafe.Pointer
		keyHash  unsafe.Pointer
		rehash   unsafe.Pointer
		maxTries int
	}{})%CacheLineSize) % CacheLineSize]byte

	_        noCopy
	slots    []atomic.Pointer[Entry[K, V]]
	keyHash  func(K) uint64
	rehash   func(uint64) uint64
	maxTries int
}

// Config defines configurable Map options.
type Config struct {
	maxTries int
}

// WithMaxTries bounds the probe sequence of every operation to n
// attempts. Values below one select the default of 32.
func WithMaxTries(n int) func(*Config) {
	return func(c *Config) {
		c.maxTries = n
	}
}

// New creates a Map with the given fixed capacity, the built-in hash
// function for K and the default rehash strategy.
//
// Parameters:
//   - WithMaxTries option for the probe budget
func New[K comparable, V any](size int, options ...func(*Config)) *Map[K, V] {
	return NewWithHasher[K, V](size, nil, nil, options...)
}

// NewWithHasher creates a Map with custom hash strategies.
//
// Parameters:
//   - keyHash: primary hash for a key; nil uses the built-in hasher
//   - rehash: second-order hash generating the next probe cursor after
//     a collision; nil uses Rehash
//   - WithMaxTries option for the probe budget
//
// Both strategies must be deterministic for the lifetime of the map.
func NewWithHasher[K comparable, V any](
	size int,
	keyHash func(K) uint64,
	rehash func(uint64) uint64,
	options ...func(*Config),
) *Map[K, V] {
	if size <= 0 {
		panic("lockfree: map capacity must be positive")
	}
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}
	if keyHash == nil {
		keyHash = defaultHasher[K]()
	}
	if rehash == nil {
		rehash = Rehash
	}
	maxTries := cfg.maxTries
	if maxTries <= 0 {
		maxTries = defaultMaxTries
	}
	return &Map[K, V]{
		slots:    make([]atomic.Pointer[Entry[K, V]], size),
		keyHash:  keyHash,
		rehash:   rehash,
		maxTries: maxTries,
	}
}

// Load returns a pointer to the value published for key, or nil when no
// matching entry is reachable: either the probe chain is broken by an
// empty slot or the probe budget is exhausted. The pointer aliases
// map-owned memory and remains valid for the lifetime of the map.
func (m *Map[K, V]) Load(key K) *V {
	hash := m.keyHash(key)
	cursor := hash
	size := uint64(len(m.slots))
	for tries := 0; tries < m.maxTries; tries++ {
		e := m.slots[cursor%size].Load()
		if e == nil {
			// an empty slot breaks the probe chain
			return nil
		}
		if e.hash == hash {
			return &e.Value
		}
		cursor = m.rehash(cursor)
	}
	return nil
}

// LoadOrStore returns the existing entry for the key's hash if one is
// published. Otherwise it publishes a new entry holding value and
// returns it. The inserted result is true if this call published the
// entry. A nil entry means the probe budget was exhausted without
// finding a matching or empty slot: the table is saturated for this
// key's probe chain and the insertion failed.
func (m *Map[K, V]) LoadOrStore(key K, value V) (e *Entry[K, V], inserted bool) {
	return m.LoadOrStoreFn(key, func() V { return value })
}

// LoadOrStoreFn is like LoadOrStore but constructs the value lazily.
// valueFn runs at most once per call, and only when an empty slot was
// found; a candidate entry that loses the publish race is dropped by
// its creator and is never visible to another goroutine.
func (m *Map[K, V]) LoadOrStoreFn(key K, valueFn func() V) (e *Entry[K, V], inserted bool) {
	hash := m.keyHash(key)
	cursor := hash
	size := uint64(len(m.slots))
	var candidate *Entry[K, V]
	for tries := 0; tries < m.maxTries; tries++ {
		slot := &m.slots[cursor%size]
		e := slot.Load()
		if e == nil {
			if candidate == nil {
				candidate = &Entry[K, V]{hash: hash, key: key, Value: valueFn()}
			}
			if slot.CompareAndSwap(nil, candidate) {
				return candidate, true
			}
			// Lost the publish race; dispatch on the winner. The slot
			// is occupied from here on, the reload cannot miss.
			e = slot.Load()
		}
		if e.hash == hash {
			return e, false
		}
		cursor = m.rehash(cursor)
	}
	return nil, false
}

// Range calls yield for each published entry until yield returns false.
// Iteration is a live view over atomically loaded slots: entries
// published concurrently may or may not be observed depending on their
// bucket position relative to the scan, but an observed entry stays
// observable forever.
func (m *Map[K, V]) Range(yield func(e *Entry[K, V]) bool) {
	for i := range m.slots {
		if e := m.slots[i].Load(); e != nil {
			if !yield(e) {
				return
			}
		}
	}
}

// All returns an iterator over published entries, usable with
// range-over-func. Same visibility rules as Range.
func (m *Map[K, V]) All() func(yield func(e *Entry[K, V]) bool) {
	return m.Range
}

// Len counts the currently occupied slots. Linear in the capacity.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Cap returns the fixed capacity the map was created with.
func (m *Map[K, V]) Cap() int {
	return len(m.slots)
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
