package pipe

import (
	"maps"
	"slices"
)

// IDSet is a set of entity ids, e.g. the task ids a model is trained for.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	maps.Copy(c, s)
	return c
}

// Minus returns a new set with the ids of s that are not in other.
func (s IDSet) Minus(other IDSet) IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		if !other.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s IDSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}
