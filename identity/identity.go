// Package identity allocates the opaque identifiers used for every entity,
// auth code and chat message in the system. Allocation is probabilistic:
// candidates are drawn from a fixed alphabet and retried until one is free,
// which terminates in practice because the id spaces in use (62^70 and up)
// dwarf any realistic exclusion set.
package identity

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the fixed 62-symbol set every identifier is built from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Identifier lengths per namespace.
const (
	ObjectIDLength  = 100
	AuthCodeLength  = 200
	MessageIDLength = 70
)

// Source yields uniformly distributed indexes into the alphabet. It is an
// interface so tests can force collisions with a deterministic sequence.
type Source interface {
	// Pick returns an index in [0, n).
	Pick(n int) int
}

// ExclusionSet reports whether a candidate identifier is already taken.
type ExclusionSet interface {
	Contains(id string) bool
}

// Func adapts a plain predicate to an ExclusionSet.
type Func func(id string) bool

func (f Func) Contains(id string) bool { return f(id) }

// Set is a map-backed ExclusionSet, convenient for tests and for callers
// that already hold a materialized namespace.
type Set map[string]struct{}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// SetOf builds a Set from a list of taken identifiers.
func SetOf(ids []string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

type cryptoSource struct{}

func (cryptoSource) Pick(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the platform source is broken;
		// there is no sensible recovery at this layer.
		panic(err)
	}
	return int(v.Int64())
}

// Allocator draws fresh identifiers against caller-supplied exclusion sets.
type Allocator struct {
	src Source
}

// New returns an allocator backed by crypto/rand.
func New() *Allocator {
	return &Allocator{src: cryptoSource{}}
}

// NewWithSource returns an allocator with an injected randomness source.
func NewWithSource(src Source) *Allocator {
	return &Allocator{src: src}
}

// Allocate returns an identifier of the given length that is not contained
// in taken. It retries until a free candidate is found.
func (a *Allocator) Allocate(length int, taken ExclusionSet) string {
	buf := make([]byte, length)
	for {
		for i := range buf {
			buf[i] = Alphabet[a.src.Pick(len(Alphabet))]
		}
		candidate := string(buf)
		if !taken.Contains(candidate) {
			return candidate
		}
	}
}
