package dict

const (
	initialCapacity = 4
	maxLoadFactor   = 2.0
	rehashBatchSize = 128

	fnvOffset64 = 0xcbf29ce484222325
	fnvPrime64  = 0x100000001b3
)

// Entry is a key-value pair stored in the dict. The hash is cached so that
// migration during rehashing never hashes the key again. ExpireAt is a Unix
// millisecond deadline, -1 for none; it belongs to the entry so that an
// overwrite of the value keeps the deadline.
type Entry struct {
	Key      string
	Val      interface{}
	ExpireAt int64

	hash uint64
	next *Entry
}

type table struct {
	slots []*Entry
	mask  uint64
	size  int
}

// Dict is a chained hash table with power-of-two sizing and incremental
// rehashing. While rehashing, reads search the primary table first and then
// the old one; writes always target the primary table; every mutating call
// migrates a bounded batch of slots, and the reactor tick drives RehashStep
// so the drain finishes even on a read-only workload.
//
// Not safe for concurrent use.
type Dict struct {
	primary   table
	rehash    table
	rehashing bool
	rehashIdx int
}

// MakeDict creates an empty Dict. The slot array is allocated lazily on the
// first insert.
func MakeDict() *Dict {
	return &Dict{}
}

// Fnv64 is the FNV-1a 64-bit hash of the given bytes.
func Fnv64(key string) uint64 {
	var h uint64 = fnvOffset64
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= fnvPrime64
	}
	return h
}

func makeTable(capacity int) table {
	return table{
		slots: make([]*Entry, capacity),
		mask:  uint64(capacity - 1),
	}
}

func (t *table) find(key string, hash uint64) *Entry {
	if t.slots == nil {
		return nil
	}
	for e := t.slots[hash&t.mask]; e != nil; e = e.next {
		if e.hash == hash && e.Key == key {
			return e
		}
	}
	return nil
}

func (t *table) remove(key string, hash uint64) bool {
	if t.slots == nil {
		return false
	}
	idx := hash & t.mask
	var prev *Entry
	for e := t.slots[idx]; e != nil; e = e.next {
		if e.hash == hash && e.Key == key {
			if prev == nil {
				t.slots[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.size--
			return true
		}
		prev = e
	}
	return false
}

// Find returns the entry bound to key, or nil
func (d *Dict) Find(key string) *Entry {
	hash := Fnv64(key)
	if e := d.primary.find(key, hash); e != nil {
		return e
	}
	if d.rehashing {
		return d.rehash.find(key, hash)
	}
	return nil
}

// Put binds key to val. An overwrite keeps the entry (and therefore its
// expire deadline) and returns 0; an insert creates an entry with no expiry
// and returns 1.
func (d *Dict) Put(key string, val interface{}) int {
	if d.primary.slots == nil {
		d.primary = makeTable(initialCapacity)
	}
	d.step(rehashBatchSize)

	hash := Fnv64(key)
	if e := d.primary.find(key, hash); e != nil {
		e.Val = val
		return 0
	}
	if d.rehashing {
		// move a matching stale entry out of the old table so the key
		// never exists in both
		if e := d.rehash.find(key, hash); e != nil {
			d.rehash.remove(key, hash)
			e.Val = val
			idx := hash & d.primary.mask
			e.next = d.primary.slots[idx]
			d.primary.slots[idx] = e
			d.primary.size++
			return 0
		}
	}
	entry := &Entry{
		Key:      key,
		Val:      val,
		ExpireAt: -1,
		hash:     hash,
	}
	idx := hash & d.primary.mask
	entry.next = d.primary.slots[idx]
	d.primary.slots[idx] = entry
	d.primary.size++
	d.maybeGrow()
	return 1
}

// Remove deletes key and returns whether it was present
func (d *Dict) Remove(key string) bool {
	d.step(rehashBatchSize)
	hash := Fnv64(key)
	if d.primary.remove(key, hash) {
		return true
	}
	if d.rehashing {
		return d.rehash.remove(key, hash)
	}
	return false
}

// Len returns the number of entries across both tables
func (d *Dict) Len() int {
	return d.primary.size + d.rehash.size
}

// Keys returns a snapshot copy of all keys
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	d.ForEach(func(e *Entry) bool {
		keys = append(keys, e.Key)
		return true
	})
	return keys
}

// ForEach visits every entry until the consumer returns false. The dict
// must not be mutated during traversal.
func (d *Dict) ForEach(consumer func(e *Entry) bool) {
	for _, t := range []*table{&d.primary, &d.rehash} {
		for _, head := range t.slots {
			for e := head; e != nil; e = e.next {
				if !consumer(e) {
					return
				}
			}
		}
	}
}

// RehashStep migrates up to n slots from the old table, freeing it once
// drained. A no-op when not rehashing.
func (d *Dict) RehashStep(n int) {
	d.step(n)
}

func (d *Dict) maybeGrow() {
	if d.rehashing {
		return
	}
	if float64(d.primary.size)/float64(len(d.primary.slots)) <= maxLoadFactor {
		return
	}
	d.rehash = d.primary
	d.primary = makeTable(len(d.rehash.slots) * 2)
	d.rehashing = true
	d.rehashIdx = 0
}

func (d *Dict) step(n int) {
	if !d.rehashing {
		return
	}
	for moved := 0; moved < n && d.rehash.size > 0; moved++ {
		for d.rehashIdx < len(d.rehash.slots) && d.rehash.slots[d.rehashIdx] == nil {
			d.rehashIdx++
		}
		if d.rehashIdx >= len(d.rehash.slots) {
			break
		}
		for e := d.rehash.slots[d.rehashIdx]; e != nil; {
			next := e.next
			idx := e.hash & d.primary.mask
			e.next = d.primary.slots[idx]
			d.primary.slots[idx] = e
			d.primary.size++
			d.rehash.size--
			e = next
		}
		d.rehash.slots[d.rehashIdx] = nil
		d.rehashIdx++
	}
	if d.rehash.size == 0 {
		d.rehash = table{}
		d.rehashing = false
		d.rehashIdx = 0
	}
}

// Rehashing reports whether an incremental rehash is in flight
func (d *Dict) Rehashing() bool {
	return d.rehashing
}
