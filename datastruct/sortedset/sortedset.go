package sortedset

// SortedSet is a set whose members are ordered by (score, member). A map
// gives O(1) member lookup; the skiplist gives O(log n) ordered access.
type SortedSet struct {
	dict     map[string]*Element
	skiplist *skiplist
}

// Make makes a new SortedSet
func Make() *SortedSet {
	return &SortedSet{
		dict:     make(map[string]*Element),
		skiplist: makeSkiplist(),
	}
}

// Add puts member into set, and returns whether it inserted a new member
func (sortedSet *SortedSet) Add(member string, score float64) bool {
	element, ok := sortedSet.dict[member]
	sortedSet.dict[member] = &Element{
		Member: member,
		Score:  score,
	}
	if ok {
		if score != element.Score {
			sortedSet.skiplist.remove(member, element.Score)
			sortedSet.skiplist.insert(member, score)
		}
		return false
	}
	sortedSet.skiplist.insert(member, score)
	return true
}

// Len returns the number of members in set
func (sortedSet *SortedSet) Len() int64 {
	return int64(len(sortedSet.dict))
}

// Get returns the element bound to the given member
func (sortedSet *SortedSet) Get(member string) (element *Element, ok bool) {
	element, ok = sortedSet.dict[member]
	if !ok {
		return nil, false
	}
	return element, true
}

// Remove removes the given member from set
func (sortedSet *SortedSet) Remove(member string) bool {
	v, ok := sortedSet.dict[member]
	if ok {
		sortedSet.skiplist.remove(member, v.Score)
		delete(sortedSet.dict, member)
		return true
	}
	return false
}

// GetRank returns the 0-based ascending rank of the given member, or -1
// if the member is absent
func (sortedSet *SortedSet) GetRank(member string) int64 {
	element, ok := sortedSet.dict[member]
	if !ok {
		return -1
	}
	return sortedSet.skiplist.getRank(member, element.Score) - 1
}

// ForEachByRank visits members with rank in [start, stop), ascending,
// rank starts from 0
func (sortedSet *SortedSet) ForEachByRank(start int64, stop int64, consumer func(element *Element) bool) {
	size := sortedSet.Len()
	if start < 0 || start >= size || stop < start || stop > size {
		return
	}
	node := sortedSet.skiplist.header.level[0].forward
	if start > 0 {
		node = sortedSet.skiplist.getByRank(start + 1)
	}
	for i := start; i < stop && node != nil; i++ {
		if !consumer(&node.Element) {
			break
		}
		node = node.level[0].forward
	}
}

// RangeByRank returns members with rank in [start, stop), ascending,
// rank starts from 0
func (sortedSet *SortedSet) RangeByRank(start int64, stop int64) []*Element {
	if stop <= start {
		return nil
	}
	slice := make([]*Element, 0, stop-start)
	sortedSet.ForEachByRank(start, stop, func(element *Element) bool {
		slice = append(slice, element)
		return true
	})
	return slice
}
