package list

import (
	"strconv"
	"testing"
)

func TestPushPop(t *testing.T) {
	l := Make()
	l.PushTail([]byte("a"))
	l.PushTail([]byte("b"))
	l.PushHead([]byte("z"))
	if l.Len() != 3 {
		t.Fatalf("len = %d", l.Len())
	}
	if v, ok := l.PopHead(); !ok || string(v) != "z" {
		t.Errorf("popHead = %q", v)
	}
	if v, ok := l.PopTail(); !ok || string(v) != "b" {
		t.Errorf("popTail = %q", v)
	}
	if v, ok := l.PopHead(); !ok || string(v) != "a" {
		t.Errorf("popHead = %q", v)
	}
	if _, ok := l.PopHead(); ok {
		t.Error("pop from empty list should fail")
	}
	if _, ok := l.PopTail(); ok {
		t.Error("pop from empty list should fail")
	}
	if l.Len() != 0 {
		t.Errorf("len = %d", l.Len())
	}
}

func TestRange(t *testing.T) {
	l := Make([]byte("a"), []byte("b"), []byte("c"), []byte("d"))
	got := l.Range(1, 2)
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "c" {
		t.Errorf("range(1,2) = %q", got)
	}
	if got := l.Range(0, 100); len(got) != 4 {
		t.Errorf("range past end returned %d elements", len(got))
	}
	if got := l.Range(3, 1); got != nil {
		t.Errorf("inverted range returned %q", got)
	}
}

func TestForEachOrder(t *testing.T) {
	l := Make()
	for i := 0; i < 10; i++ {
		l.PushTail([]byte(strconv.Itoa(i)))
	}
	l.ForEach(func(i int, val []byte) bool {
		if string(val) != strconv.Itoa(i) {
			t.Errorf("index %d holds %q", i, val)
		}
		return true
	})
}
