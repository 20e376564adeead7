package sortedset

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndGet(t *testing.T) {
	s := Make()
	assert.True(t, s.Add("a", 1))
	assert.False(t, s.Add("a", 2)) // update, not insert
	e, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, float64(2), e.Score)
	assert.Equal(t, int64(1), s.Len())
}

func TestOrdering(t *testing.T) {
	s := Make()
	s.Add("b", 2)
	s.Add("a", 1)
	s.Add("c", 3)
	// tie-break on member
	s.Add("y", 2)
	s.Add("x", 2)

	got := s.RangeByRank(0, s.Len())
	members := make([]string, len(got))
	for i, e := range got {
		members[i] = e.Member
	}
	assert.Equal(t, []string{"a", "b", "x", "y", "c"}, members)
}

func TestRank(t *testing.T) {
	s := Make()
	s.Add("a", 1)
	s.Add("b", 2)
	s.Add("c", 3)
	assert.Equal(t, int64(0), s.GetRank("a"))
	assert.Equal(t, int64(2), s.GetRank("c"))
	assert.Equal(t, int64(-1), s.GetRank("missing"))

	// update repositions
	s.Add("a", 10)
	assert.Equal(t, int64(2), s.GetRank("a"))
}

func TestRemove(t *testing.T) {
	s := Make()
	s.Add("a", 1)
	s.Add("b", 2)
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, int64(1), s.Len())
	assert.Equal(t, int64(0), s.GetRank("b"))
}

func TestAgainstSortedSlice(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := Make()
	model := make(map[string]float64)
	for i := 0; i < 5000; i++ {
		member := "m" + strconv.Itoa(rng.Intn(800))
		switch rng.Intn(3) {
		case 0, 1:
			score := float64(rng.Intn(100))
			s.Add(member, score)
			model[member] = score
		case 2:
			s.Remove(member)
			delete(model, member)
		}
	}
	assert.Equal(t, int64(len(model)), s.Len())

	type pair struct {
		member string
		score  float64
	}
	want := make([]pair, 0, len(model))
	for m, sc := range model {
		want = append(want, pair{m, sc})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].score != want[j].score {
			return want[i].score < want[j].score
		}
		return want[i].member < want[j].member
	})

	got := s.RangeByRank(0, s.Len())
	assert.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].member, got[i].Member, "rank %d", i)
		assert.Equal(t, want[i].score, got[i].Score, "rank %d", i)
		assert.Equal(t, int64(i), s.GetRank(want[i].member))
	}
}
