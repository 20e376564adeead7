package object

import (
	"strconv"

	"github.com/hdt3213/solodis/datastruct/list"
	"github.com/hdt3213/solodis/datastruct/set"
	"github.com/hdt3213/solodis/datastruct/sortedset"
)

// Type tags the five value kinds a key may hold
type Type uint8

const (
	TypeString Type = iota
	TypeList
	TypeHash
	TypeSet
	TypeZSet
)

// Encoding describes the internal representation of a value
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingInt
	EncodingLinkedList
	EncodingHashTable
	EncodingSkiplist
)

// Object is the tagged value stored for every key. Exactly one payload
// field is active, selected by Type (and Encoding for strings).
type Object struct {
	Type     Type
	Encoding Encoding

	Bytes []byte
	Int   int64
	List  *list.LinkedList
	Hash  map[string]string
	Set   *set.Set
	ZSet  *sortedset.SortedSet
}

// MakeString creates a STRING object. If the whole byte-string spells a
// base-10 signed 64-bit integer it is stored in integer encoding; the
// round-trip check keeps values like "007" or "+5" raw so AsString always
// reproduces the original bytes.
func MakeString(val []byte) *Object {
	if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
		if strconv.FormatInt(i, 10) == string(val) {
			return &Object{
				Type:     TypeString,
				Encoding: EncodingInt,
				Int:      i,
			}
		}
	}
	raw := make([]byte, len(val))
	copy(raw, val)
	return &Object{
		Type:     TypeString,
		Encoding: EncodingRaw,
		Bytes:    raw,
	}
}

// MakeStringFromInt creates a STRING object in integer encoding
func MakeStringFromInt(i int64) *Object {
	return &Object{
		Type:     TypeString,
		Encoding: EncodingInt,
		Int:      i,
	}
}

// MakeList creates an empty LIST object
func MakeList() *Object {
	return &Object{
		Type:     TypeList,
		Encoding: EncodingLinkedList,
		List:     list.Make(),
	}
}

// MakeHash creates an empty HASH object
func MakeHash() *Object {
	return &Object{
		Type:     TypeHash,
		Encoding: EncodingHashTable,
		Hash:     make(map[string]string),
	}
}

// MakeSet creates an empty SET object
func MakeSet() *Object {
	return &Object{
		Type:     TypeSet,
		Encoding: EncodingHashTable,
		Set:      set.Make(),
	}
}

// MakeZSet creates an empty ZSET object
func MakeZSet() *Object {
	return &Object{
		Type:     TypeZSet,
		Encoding: EncodingSkiplist,
		ZSet:     sortedset.Make(),
	}
}

// AsString returns the byte-string form of a STRING object
func (obj *Object) AsString() []byte {
	if obj.Encoding == EncodingInt {
		return []byte(strconv.FormatInt(obj.Int, 10))
	}
	return obj.Bytes
}

// TypeName returns the name TYPE replies with
func (obj *Object) TypeName() string {
	switch obj.Type {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	}
	return "none"
}
