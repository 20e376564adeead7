package database

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/redis/protocol"
)

func (db *DB) getAsString(key string) (*object.Object, protocol.ErrorReply) {
	obj, ok := db.GetEntity(key)
	if !ok {
		return nil, nil
	}
	if obj.Type != object.TypeString {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return obj, nil
}

// execGet returns string value bound to the given key
func execGet(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	obj, errReply := db.getAsString(key)
	if errReply != nil {
		return errReply
	}
	if obj == nil {
		return protocol.MakeNullBulkReply()
	}
	return protocol.MakeBulkReply(obj.AsString())
}

// execSet sets string value to the given key and clears its TTL
func execSet(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	db.PutEntity(key, object.MakeString(args[1]))
	// SET discards any previous expire deadline
	db.Persist(key)
	db.addAofCmd(utils.ToCmdLine3("set", args...))
	return protocol.MakeOkReply()
}

// execStrLen returns the length of the string value bound to the given key
func execStrLen(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	obj, errReply := db.getAsString(key)
	if errReply != nil {
		return errReply
	}
	if obj == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(int64(len(obj.AsString())))
}

func (db *DB) incrBy(key string, delta int64) redis.Reply {
	obj, errReply := db.getAsString(key)
	if errReply != nil {
		return errReply
	}
	val := delta
	if obj != nil {
		if obj.Encoding != object.EncodingInt {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		val = obj.Int + delta
	}
	entry := db.data.Find(key)
	if entry != nil {
		// keep the entry (and its TTL), swap the value in place
		entry.Val = object.MakeStringFromInt(val)
	} else {
		db.PutEntity(key, object.MakeStringFromInt(val))
	}
	return protocol.MakeIntReply(val)
}

// execIncr increments the integer value of the given key by one
func execIncr(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	reply := db.incrBy(key, 1)
	if !protocol.IsErrorReply(reply) {
		db.addAofCmd(utils.ToCmdLine3("incr", args...))
	}
	return reply
}

// execDecr decrements the integer value of the given key by one
func execDecr(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	reply := db.incrBy(key, -1)
	if !protocol.IsErrorReply(reply) {
		db.addAofCmd(utils.ToCmdLine3("decr", args...))
	}
	return reply
}

// execIncrBy increments the integer value of the given key by the given delta
func execIncrBy(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	delta, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	reply := db.incrBy(key, delta)
	if !protocol.IsErrorReply(reply) {
		db.addAofCmd(utils.ToCmdLine3("incrby", args...))
	}
	return reply
}

// execIncrByFloat increments the float value of the given key by the given delta
func execIncrByFloat(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	delta, err := decimal.NewFromString(string(args[1]))
	if err != nil {
		return protocol.MakeErrReply("ERR value is not a valid float")
	}
	obj, errReply := db.getAsString(key)
	if errReply != nil {
		return errReply
	}
	result := delta
	if obj != nil {
		val, err := decimal.NewFromString(string(obj.AsString()))
		if err != nil {
			return protocol.MakeErrReply("ERR value is not a valid float")
		}
		result = val.Add(delta)
	}
	resultBytes := []byte(result.String())
	entry := db.data.Find(key)
	if entry != nil {
		entry.Val = object.MakeString(resultBytes)
	} else {
		db.PutEntity(key, object.MakeString(resultBytes))
	}
	db.addAofCmd(utils.ToCmdLine3("incrbyfloat", args...))
	return protocol.MakeBulkReply(resultBytes)
}

func init() {
	registerCommand("set", execSet, 3, flagWrite)
	registerCommand("get", execGet, 2, flagReadOnly)
	registerCommand("strlen", execStrLen, 2, flagReadOnly)
	registerCommand("incr", execIncr, 2, flagWrite)
	registerCommand("decr", execDecr, 2, flagWrite)
	registerCommand("incrby", execIncrBy, 3, flagWrite)
	registerCommand("incrbyfloat", execIncrByFloat, 3, flagWrite)
}
