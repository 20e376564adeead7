package object

import (
	"bytes"
	"testing"
)

func TestStringIntegerEncoding(t *testing.T) {
	cases := []struct {
		input   string
		wantEnc Encoding
	}{
		{"123", EncodingInt},
		{"-9223372036854775808", EncodingInt},
		{"9223372036854775807", EncodingInt},
		{"9223372036854775808", EncodingRaw}, // overflows int64
		{"007", EncodingRaw},                 // does not round-trip
		{"+5", EncodingRaw},
		{"12.5", EncodingRaw},
		{"", EncodingRaw},
		{"abc", EncodingRaw},
	}
	for _, c := range cases {
		obj := MakeString([]byte(c.input))
		if obj.Encoding != c.wantEnc {
			t.Errorf("%q: encoding %d, want %d", c.input, obj.Encoding, c.wantEnc)
		}
		if got := obj.AsString(); !bytes.Equal(got, []byte(c.input)) {
			t.Errorf("%q: asString returned %q", c.input, got)
		}
	}
}

func TestMakeStringCopiesInput(t *testing.T) {
	src := []byte("mutable")
	obj := MakeString(src)
	src[0] = 'X'
	if string(obj.AsString()) != "mutable" {
		t.Error("object aliases caller memory")
	}
}

func TestTypeNames(t *testing.T) {
	cases := map[string]*Object{
		"string": MakeString([]byte("v")),
		"list":   MakeList(),
		"hash":   MakeHash(),
		"set":    MakeSet(),
		"zset":   MakeZSet(),
	}
	for want, obj := range cases {
		if got := obj.TypeName(); got != want {
			t.Errorf("got %q want %q", got, want)
		}
	}
}
