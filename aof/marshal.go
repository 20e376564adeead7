package aof

import (
	"strconv"

	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/datastruct/sortedset"
	"github.com/hdt3213/solodis/redis/protocol"
)

// EntityToCmd serializes a value into the command that reconstructs it
func EntityToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	if obj == nil {
		return nil
	}
	switch obj.Type {
	case object.TypeString:
		return stringToCmd(key, obj)
	case object.TypeList:
		return listToCmd(key, obj)
	case object.TypeHash:
		return hashToCmd(key, obj)
	case object.TypeSet:
		return setToCmd(key, obj)
	case object.TypeZSet:
		return zSetToCmd(key, obj)
	}
	return nil
}

var setCmd = []byte("SET")

func stringToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	args := make([][]byte, 3)
	args[0] = setCmd
	args[1] = []byte(key)
	args[2] = obj.AsString()
	return protocol.MakeMultiBulkReply(args)
}

var rPushAllCmd = []byte("RPUSH")

func listToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	args := make([][]byte, 2+obj.List.Len())
	args[0] = rPushAllCmd
	args[1] = []byte(key)
	obj.List.ForEach(func(i int, val []byte) bool {
		args[2+i] = val
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var hSetCmd = []byte("HSET")

func hashToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	args := make([][]byte, 2, 2+len(obj.Hash)*2)
	args[0] = hSetCmd
	args[1] = []byte(key)
	for field, val := range obj.Hash {
		args = append(args, []byte(field), []byte(val))
	}
	return protocol.MakeMultiBulkReply(args)
}

var sAddCmd = []byte("SADD")

func setToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	args := make([][]byte, 2, 2+obj.Set.Len())
	args[0] = sAddCmd
	args[1] = []byte(key)
	obj.Set.ForEach(func(member string) bool {
		args = append(args, []byte(member))
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var zAddCmd = []byte("ZADD")

func zSetToCmd(key string, obj *object.Object) *protocol.MultiBulkReply {
	args := make([][]byte, 2, 2+obj.ZSet.Len()*2)
	args[0] = zAddCmd
	args[1] = []byte(key)
	// ascending rank order so replay reproduces the tie-break order
	obj.ZSet.ForEachByRank(0, obj.ZSet.Len(), func(element *sortedset.Element) bool {
		score := strconv.FormatFloat(element.Score, 'g', 17, 64)
		args = append(args, []byte(score), []byte(element.Member))
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var pExpireAtBytes = []byte("PEXPIREAT")

// MakeExpireCmd generates the command that restores the expire deadline of
// the given key
func MakeExpireCmd(key string, expireAtMs int64) *protocol.MultiBulkReply {
	args := make([][]byte, 3)
	args[0] = pExpireAtBytes
	args[1] = []byte(key)
	args[2] = []byte(strconv.FormatInt(expireAtMs, 10))
	return protocol.MakeMultiBulkReply(args)
}
