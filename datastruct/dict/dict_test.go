package dict

import (
	"strconv"
	"testing"
)

func TestFnv64(t *testing.T) {
	// published FNV-1a test vectors
	if got := Fnv64(""); got != 0xcbf29ce484222325 {
		t.Errorf("fnv(\"\") = %#x", got)
	}
	if got := Fnv64("a"); got != 0xaf63dc4c8601ec8c {
		t.Errorf("fnv(\"a\") = %#x", got)
	}
}

func TestPutGetRemove(t *testing.T) {
	d := MakeDict()
	if d.Put("k", 1) != 1 {
		t.Error("insert should return 1")
	}
	if d.Put("k", 2) != 0 {
		t.Error("overwrite should return 0")
	}
	if d.Len() != 1 {
		t.Errorf("len = %d", d.Len())
	}
	e := d.Find("k")
	if e == nil || e.Val.(int) != 2 {
		t.Error("find returned wrong entry")
	}
	if !d.Remove("k") {
		t.Error("remove should report the key existed")
	}
	if d.Remove("k") {
		t.Error("second remove should report absence")
	}
	if d.Len() != 0 {
		t.Errorf("len = %d after remove", d.Len())
	}
}

func TestOverwritePreservesExpire(t *testing.T) {
	d := MakeDict()
	d.Put("k", "v1")
	d.Find("k").ExpireAt = 12345
	d.Put("k", "v2")
	e := d.Find("k")
	if e.ExpireAt != 12345 {
		t.Errorf("overwrite reset expireAt to %d", e.ExpireAt)
	}
	if e.Val.(string) != "v2" {
		t.Error("overwrite lost new value")
	}
}

func TestRehashingInvariance(t *testing.T) {
	d := MakeDict()
	n := 10000
	for i := 0; i < n; i++ {
		d.Put("key"+strconv.Itoa(i), i)
		// every key ever inserted must remain reachable at every
		// intermediate state
		if i%97 == 0 {
			probe := "key" + strconv.Itoa(i/2)
			e := d.Find(probe)
			if e == nil || e.Val.(int) != i/2 {
				t.Fatalf("lost %s during growth at i=%d", probe, i)
			}
		}
	}
	if d.Len() != n {
		t.Fatalf("len = %d, want %d", d.Len(), n)
	}
	for i := 0; i < n; i++ {
		key := "key" + strconv.Itoa(i)
		e := d.Find(key)
		if e == nil || e.Val.(int) != i {
			t.Fatalf("lost %s after growth", key)
		}
	}
	// drain any in-flight rehash and verify again
	for d.Rehashing() {
		d.RehashStep(128)
	}
	for i := 0; i < n; i++ {
		if d.Find("key"+strconv.Itoa(i)) == nil {
			t.Fatalf("lost key%d after drain", i)
		}
	}
}

func TestNoDuplicateAcrossTables(t *testing.T) {
	d := MakeDict()
	for i := 0; i < 512; i++ {
		d.Put("key"+strconv.Itoa(i), i)
	}
	// overwrite everything while a rehash may be in flight
	for i := 0; i < 512; i++ {
		d.Put("key"+strconv.Itoa(i), -i)
	}
	if d.Len() != 512 {
		t.Fatalf("len = %d, duplicates created", d.Len())
	}
	count := 0
	d.ForEach(func(e *Entry) bool {
		count++
		return true
	})
	if count != 512 {
		t.Fatalf("forEach visited %d entries", count)
	}
}

func TestKeysSnapshot(t *testing.T) {
	d := MakeDict()
	for i := 0; i < 100; i++ {
		d.Put(strconv.Itoa(i), i)
	}
	keys := d.Keys()
	if len(keys) != 100 {
		t.Fatalf("got %d keys", len(keys))
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		seen[k] = true
	}
	if len(seen) != 100 {
		t.Error("duplicate keys in snapshot")
	}
}
