package iobuf

import (
	"bytes"
	"testing"
)

func TestZeroBufferHoldsNoMemory(t *testing.T) {
	var b Buffer
	if b.Cap() != 0 {
		t.Errorf("fresh buffer allocated %d bytes", b.Cap())
	}
	if b.Readable() != 0 || b.Writable() != 0 {
		t.Error("fresh buffer should be empty")
	}
}

func TestAppendConsume(t *testing.T) {
	var b Buffer
	b.Append([]byte("hello"))
	if got := string(b.ReadableSlice()); got != "hello" {
		t.Errorf("got %q", got)
	}
	b.Consume(2)
	if got := string(b.ReadableSlice()); got != "llo" {
		t.Errorf("got %q", got)
	}
	b.Consume(3)
	// Tier 1: cursors reset on empty
	if b.r != 0 || b.w != 0 {
		t.Errorf("cursors not reset: r=%d w=%d", b.r, b.w)
	}
	if b.Cap() != initialCapacity {
		t.Errorf("capacity should not shrink, got %d", b.Cap())
	}
}

func TestTier2Compaction(t *testing.T) {
	var b Buffer
	payload := bytes.Repeat([]byte("x"), initialCapacity-16)
	b.Append(payload)
	b.Consume(len(payload) - 8) // 8 readable bytes near the end
	before := b.Cap()

	b.Append(bytes.Repeat([]byte("y"), 64)) // does not fit at back, fits after memmove
	if b.Cap() != before {
		t.Errorf("tier 2 should not grow: %d -> %d", before, b.Cap())
	}
	want := append(bytes.Repeat([]byte("x"), 8), bytes.Repeat([]byte("y"), 64)...)
	if !bytes.Equal(b.ReadableSlice(), want) {
		t.Error("readable bytes corrupted by compaction")
	}
}

func TestTier3Growth(t *testing.T) {
	var b Buffer
	big := bytes.Repeat([]byte("z"), initialCapacity*3)
	b.Append([]byte("head"))
	b.Append(big)
	if b.Cap() < initialCapacity*3+4 {
		t.Errorf("capacity %d too small", b.Cap())
	}
	if b.Cap()&(b.Cap()-1) != 0 {
		t.Errorf("capacity %d is not a power-of-two multiple of 4096", b.Cap())
	}
	want := append([]byte("head"), big...)
	if !bytes.Equal(b.ReadableSlice(), want) {
		t.Error("readable bytes corrupted by growth")
	}
}

func TestCommitWriteThroughWritableSlice(t *testing.T) {
	var b Buffer
	b.EnsureWritable(16)
	n := copy(b.WritableSlice(), "abc")
	b.CommitWrite(n)
	if got := string(b.ReadableSlice()); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestPreservationUnderMixedOps(t *testing.T) {
	var b Buffer
	var mirror []byte
	chunk := []byte("0123456789abcdef")
	for i := 0; i < 1000; i++ {
		b.Append(chunk)
		mirror = append(mirror, chunk...)
		if i%3 == 0 {
			n := b.Readable() / 2
			b.Consume(n)
			mirror = mirror[n:]
		}
		if !bytes.Equal(b.ReadableSlice(), mirror) {
			t.Fatalf("mismatch at iteration %d", i)
		}
		if b.Readable()+b.Writable() > b.Cap() {
			t.Fatalf("cursor accounting broken at iteration %d", i)
		}
		if b.Cap() > 0 && b.Cap() < initialCapacity {
			t.Fatalf("capacity shrank below initial at iteration %d", i)
		}
	}
}
