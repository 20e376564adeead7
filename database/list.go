package database

import (
	"strconv"

	"github.com/hdt3213/solodis/datastruct/list"
	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/redis/protocol"
)

func (db *DB) getAsList(key string) (*list.LinkedList, protocol.ErrorReply) {
	obj, ok := db.GetEntity(key)
	if !ok {
		return nil, nil
	}
	if obj.Type != object.TypeList {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return obj.List, nil
}

func (db *DB) getOrInitList(key string) (*list.LinkedList, protocol.ErrorReply) {
	l, errReply := db.getAsList(key)
	if errReply != nil {
		return nil, errReply
	}
	if l == nil {
		obj := object.MakeList()
		db.PutEntity(key, obj)
		l = obj.List
	}
	return l, nil
}

// execLPush inserts values at the head of the list
func execLPush(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	l, errReply := db.getOrInitList(key)
	if errReply != nil {
		return errReply
	}
	for _, value := range args[1:] {
		l.PushHead(value)
	}
	db.addAofCmd(utils.ToCmdLine3("lpush", args...))
	return protocol.MakeIntReply(int64(l.Len()))
}

// execRPush inserts values at the tail of the list
func execRPush(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	l, errReply := db.getOrInitList(key)
	if errReply != nil {
		return errReply
	}
	for _, value := range args[1:] {
		l.PushTail(value)
	}
	db.addAofCmd(utils.ToCmdLine3("rpush", args...))
	return protocol.MakeIntReply(int64(l.Len()))
}

// execLPop removes and returns the head of the list
func execLPop(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	l, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if l == nil {
		return protocol.MakeNullBulkReply()
	}
	val, _ := l.PopHead()
	if l.Len() == 0 {
		// an emptied list no longer occupies its key
		db.Remove(key)
	}
	db.addAofCmd(utils.ToCmdLine("lpop", key))
	return protocol.MakeBulkReply(val)
}

// execRPop removes and returns the tail of the list
func execRPop(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	l, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if l == nil {
		return protocol.MakeNullBulkReply()
	}
	val, _ := l.PopTail()
	if l.Len() == 0 {
		db.Remove(key)
	}
	db.addAofCmd(utils.ToCmdLine("rpop", key))
	return protocol.MakeBulkReply(val)
}

// execLLen returns the length of the list
func execLLen(db *DB, args [][]byte) redis.Reply {
	l, errReply := db.getAsList(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if l == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(int64(l.Len()))
}

// normalizeRange maps negative indices onto [0, size) and clamps. The
// returned stop is inclusive; ok is false when the window is empty.
func normalizeRange(start int64, stop int64, size int64) (int64, int64, bool) {
	if start < 0 {
		start = size + start
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop = size + stop
	}
	if stop >= size {
		stop = size - 1
	}
	if start >= size || start > stop {
		return 0, 0, false
	}
	return start, stop, true
}

// execLRange returns the elements of the list within the given rank range
func execLRange(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	start, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	l, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if l == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}
	start, stop, ok := normalizeRange(start, stop, int64(l.Len()))
	if !ok {
		return protocol.MakeEmptyMultiBulkReply()
	}
	return protocol.MakeMultiBulkReply(l.Range(int(start), int(stop)))
}

func init() {
	registerCommand("lpush", execLPush, -3, flagWrite)
	registerCommand("rpush", execRPush, -3, flagWrite)
	registerCommand("lpop", execLPop, 2, flagWrite)
	registerCommand("rpop", execRPop, 2, flagWrite)
	registerCommand("llen", execLLen, 2, flagReadOnly)
	registerCommand("lrange", execLRange, 4, flagReadOnly)
}
