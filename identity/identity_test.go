package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// seqSource replays a fixed sequence of alphabet indexes.
type seqSource struct {
	indexes []int
	pos     int
}

func (s *seqSource) Pick(n int) int {
	i := s.indexes[s.pos%len(s.indexes)]
	s.pos++
	return i % n
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	req := require.New(t)

	// First candidate is "A" (taken), second is "B" (free).
	alloc := NewWithSource(&seqSource{indexes: []int{0, 1}})
	taken := SetOf([]string{"A"})

	id := alloc.Allocate(1, taken)
	req.Equal("B", id)
}

func TestAllocate_SkipsEveryTakenCandidate(t *testing.T) {
	req := require.New(t)

	// The source cycles 0,1,2,3; the first three candidates are excluded.
	alloc := NewWithSource(&seqSource{indexes: []int{0, 1, 2, 3}})
	taken := SetOf([]string{"A", "B", "C"})

	id := alloc.Allocate(1, taken)
	req.Equal("D", id)
}

func TestAllocate_AlphabetOnly(t *testing.T) {
	req := require.New(t)
	alloc := New()

	id := alloc.Allocate(64, Set{})
	req.Len(id, 64)
	for _, r := range id {
		req.True(strings.ContainsRune(Alphabet, r), "unexpected symbol %q", r)
	}
}

func Test_Uniqueness_Under_Adversarial_Exclusion(t *testing.T) {
	req := require.New(t)
	alloc := New()

	// Length-1 ids leave only 62 possibilities; filling most of the space
	// forces the retry loop constantly and every result must still be fresh.
	taken := make(Set)
	for i := 0; i < 50; i++ {
		id := alloc.Allocate(1, taken)
		req.NotContains(taken, id)
		taken[id] = struct{}{}
	}
	req.Len(taken, 50)
}

func Test_Uniqueness_Growing_Set(t *testing.T) {
	req := require.New(t)
	alloc := New()

	taken := make(Set)
	for i := 0; i < 500; i++ {
		id := alloc.Allocate(2, taken)
		req.NotContains(taken, id)
		taken[id] = struct{}{}
	}
}
