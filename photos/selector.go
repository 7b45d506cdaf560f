package photos

import (
	"math/rand/v2"

	"photobot/models"

	"github.com/samber/lo"
)

// Rand is the source of randomness used to pick candidates
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Selector picks untried photos from a feed uniformly at random.
// The tried set is keyed by feed index and lives for one run only.
type Selector struct {
	feed  models.Feed
	rng   Rand
	tried map[int]struct{}
}

func NewSelector(feed models.Feed, rng Rand) *Selector {
	if rng == nil {
		rng = globalRand{}
	}
	return &Selector{
		feed:  feed,
		rng:   rng,
		tried: make(map[int]struct{}, len(feed)),
	}
}

// Next returns a random untried photo and marks it as tried.
// ok is false once every entry has been tried.
func (s *Selector) Next() (index int, photo models.Photo, ok bool) {
	untried := lo.Filter(lo.Range(len(s.feed)), func(i int, _ int) bool {
		_, seen := s.tried[i]
		return !seen
	})
	if len(untried) == 0 {
		return -1, models.Photo{}, false
	}

	index = untried[s.rng.IntN(len(untried))]
	s.tried[index] = struct{}{}
	return index, s.feed[index], true
}

// Tried reports how many entries have been handed out
func (s *Selector) Tried() int {
	return len(s.tried)
}

// Remaining reports how many entries have not been tried yet
func (s *Selector) Remaining() int {
	return len(s.feed) - len(s.tried)
}
