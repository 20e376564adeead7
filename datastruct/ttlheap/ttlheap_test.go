package ttlheap

import (
	"math/rand"
	"strconv"
	"testing"
)

func checkHeapProperty(t *testing.T, h *Heap) {
	t.Helper()
	for i := 1; i < len(h.entries); i++ {
		parent := (i - 1) / 2
		if h.entries[parent].deadline > h.entries[i].deadline {
			t.Fatalf("heap property violated at index %d", i)
		}
	}
	if len(h.entries) != len(h.pos) {
		t.Fatalf("heap size %d != index size %d", len(h.entries), len(h.pos))
	}
	for key, idx := range h.pos {
		if h.entries[idx].key != key {
			t.Fatalf("stale position for %s", key)
		}
	}
}

func TestPushPopOrder(t *testing.T) {
	h := MakeHeap()
	h.Push("c", 30)
	h.Push("a", 10)
	h.Push("b", 20)
	checkHeapProperty(t, h)

	got := h.PopExpired(25, 10)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
	if h.Len() != 1 {
		t.Errorf("len = %d", h.Len())
	}
}

func TestPopExpiredBounded(t *testing.T) {
	h := MakeHeap()
	for i := 0; i < 100; i++ {
		h.Push("k"+strconv.Itoa(i), int64(i))
	}
	got := h.PopExpired(1000, 7)
	if len(got) != 7 {
		t.Errorf("maxWork ignored, popped %d", len(got))
	}
	checkHeapProperty(t, h)
}

func TestPushExistingUpdates(t *testing.T) {
	h := MakeHeap()
	h.Push("k", 100)
	h.Push("k", 5)
	if h.Len() != 1 {
		t.Fatalf("key duplicated, len = %d", h.Len())
	}
	key, deadline, ok := h.Peek()
	if !ok || key != "k" || deadline != 5 {
		t.Errorf("peek = %s %d", key, deadline)
	}
}

func TestRemoveArbitrary(t *testing.T) {
	h := MakeHeap()
	for i := 0; i < 50; i++ {
		h.Push("k"+strconv.Itoa(i), int64(100-i))
	}
	h.Remove("k25")
	h.Remove("k0")
	h.Remove("missing")
	checkHeapProperty(t, h)
	if h.Len() != 48 {
		t.Errorf("len = %d", h.Len())
	}
	for _, k := range h.PopExpired(1000, 100) {
		if k == "k25" || k == "k0" {
			t.Errorf("removed key %s popped", k)
		}
	}
}

func TestRandomInterleaving(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := MakeHeap()
	live := make(map[string]int64)
	for op := 0; op < 20000; op++ {
		key := "k" + strconv.Itoa(rng.Intn(500))
		switch rng.Intn(4) {
		case 0:
			dl := int64(rng.Intn(100000))
			h.Push(key, dl)
			live[key] = dl
		case 1:
			h.Remove(key)
			delete(live, key)
		case 2:
			if _, ok := live[key]; ok {
				dl := int64(rng.Intn(100000))
				h.Update(key, dl)
				live[key] = dl
			}
		case 3:
			now := int64(rng.Intn(100000))
			for _, k := range h.PopExpired(now, 10) {
				if live[k] > now {
					t.Fatalf("popped %s with deadline %d > now %d", k, live[k], now)
				}
				delete(live, k)
			}
		}
		if op%1000 == 0 {
			checkHeapProperty(t, h)
		}
	}
	checkHeapProperty(t, h)
	if h.Len() != len(live) {
		t.Fatalf("heap len %d != model len %d", h.Len(), len(live))
	}
}
