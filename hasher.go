package lockfree

import (
	"encoding/binary"
	"math/rand/v2"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Rehash is the default second-order hash strategy: an FNV-1a style mix
// of the probe cursor, producing the next candidate bucket after a
// collision.
func Rehash(n uint64) uint64 {
	const (
		offset = 0xcbf29ce484222325
		prime  = 0x100000001b3
	)
	hash := uint64(offset)
	hash ^= n
	hash *= prime
	return hash
}

// RehashBytes is an alternative second-order hash strategy that runs
// the cursor's eight little-endian bytes through xxhash.
func RehashBytes(n uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return xxhash.Sum64(b[:])
}

// HashString is a ready-made primary hash strategy for string keys,
// backed by xxh3.
func HashString(s string) uint64 {
	return xxh3.HashString(s)
}

// HashStringMurmur3 is a primary hash strategy for string keys backed
// by 64-bit murmur3, for callers that need a stable, seedless hash
// shared with other systems.
func HashStringMurmur3(s string) uint64 {
	return murmur3.Sum64([]byte(s))
}

// HashBytes hashes a byte slice with xxhash. Byte slices are not
// comparable and cannot be map keys themselves; this is a building
// block for hash strategies over keys with a byte representation.
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// defaultHasher wraps Go's built-in hash function for K into a primary
// hash strategy. The seed is drawn once per map, so hash values are
// stable within a map but differ between maps.
func defaultHasher[K comparable]() func(K) uint64 {
	var m map[K]struct{}
	hasher := iTypeOf(m).MapType().Hasher
	seed := uintptr(rand.Uint64())
	return func(key K) uint64 {
		return uint64(hasher(noescape(unsafe.Pointer(&key)), seed))
	}
}

// What follows mirrors the runtime's type representation to reach the
// built-in hasher without reflection overhead. It must be re-verified
// against each Go version upgrade.

type iTFlag uint8
type iKind uint8
type iNameOff int32
type iTypeOff int32

type iType struct {
	Size_       uintptr
	PtrBytes    uintptr
	Hash        uint32
	TFlag       iTFlag
	Align_      uint8
	FieldAlign_ uint8
	Kind_       iKind
	Equal       func(unsafe.Pointer, unsafe.Pointer) bool
	GCData      *byte
	Str         iNameOff
	PtrToThis   iTypeOff
}

func (t *iType) MapType() *iMapType {
	return (*iMapType)(unsafe.Pointer(t))
}

type iMapType struct {
	iType
	Key   *iType
	Elem  *iType
	Group *iType
	// function for hashing keys (ptr to key, seed) -> hash
	Hasher func(unsafe.Pointer, uintptr) uintptr
}

type iEmptyInterface struct {
	Type *iType
	Data unsafe.Pointer
}

func iTypeOf(a any) *iType {
	eface := *(*iEmptyInterface)(unsafe.Pointer(&a))
	return (*iType)(noescape(unsafe.Pointer(eface.Type)))
}

// noescape hides a pointer from escape analysis. It is the identity
// function, but escape analysis doesn't think the output depends on
// the input. USE CAREFULLY!
//
//go:nosplit
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
