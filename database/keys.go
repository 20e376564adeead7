package database

import (
	"strconv"
	"time"

	"github.com/hdt3213/solodis/aof"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/lib/wildcard"
	"github.com/hdt3213/solodis/redis/protocol"
)

// execDel removes keys from db
func execDel(db *DB, args [][]byte) redis.Reply {
	keys := make([]string, len(args))
	for i, v := range args {
		keys[i] = string(v)
	}
	deleted := db.Removes(keys...)
	if deleted > 0 {
		db.addAofCmd(utils.ToCmdLine3("del", args...))
	}
	return protocol.MakeIntReply(int64(deleted))
}

// execExists checks if the given keys exist in db
func execExists(db *DB, args [][]byte) redis.Reply {
	result := int64(0)
	for _, arg := range args {
		if db.Exists(string(arg)) {
			result++
		}
	}
	return protocol.MakeIntReply(result)
}

// execKeys returns all keys matching the given pattern
func execKeys(db *DB, args [][]byte) redis.Reply {
	pattern := wildcard.CompilePattern(string(args[0]))
	result := make([][]byte, 0)
	for _, key := range db.Keys() {
		// the snapshot may contain keys that expired since it was taken
		if pattern.IsMatch(key) && db.Exists(key) {
			result = append(result, []byte(key))
		}
	}
	return protocol.MakeMultiBulkReply(result)
}

// execDBSize returns the number of keys in db
func execDBSize(db *DB, args [][]byte) redis.Reply {
	return protocol.MakeIntReply(int64(db.Len()))
}

// execType returns the type of the entity bound to the given key
func execType(db *DB, args [][]byte) redis.Reply {
	obj, ok := db.GetEntity(string(args[0]))
	if !ok {
		return protocol.MakeStatusReply("none")
	}
	return protocol.MakeStatusReply(obj.TypeName())
}

func expireCommon(db *DB, args [][]byte, unit time.Duration) redis.Reply {
	key := string(args[0])
	n, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	deadline := nowMs() + n*unit.Milliseconds()
	if !db.Expire(key, deadline) {
		return protocol.MakeIntReply(0)
	}
	db.addAofCmd(aof.MakeExpireCmd(key, deadline).Args)
	return protocol.MakeIntReply(1)
}

// execExpire sets a key's time to live in seconds
func execExpire(db *DB, args [][]byte) redis.Reply {
	return expireCommon(db, args, time.Second)
}

// execPExpire sets a key's time to live in milliseconds
func execPExpire(db *DB, args [][]byte) redis.Reply {
	return expireCommon(db, args, time.Millisecond)
}

// execPExpireAt sets an absolute expire deadline in Unix milliseconds.
// It is the form every expire command takes in the aof, so that replay
// is independent of replay time.
func execPExpireAt(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	deadline, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	if !db.Expire(key, deadline) {
		return protocol.MakeIntReply(0)
	}
	db.addAofCmd(aof.MakeExpireCmd(key, deadline).Args)
	return protocol.MakeIntReply(1)
}

// execTTL returns a key's time to live in seconds
func execTTL(db *DB, args [][]byte) redis.Reply {
	ms := db.TTLms(string(args[0]))
	if ms < 0 {
		return protocol.MakeIntReply(ms)
	}
	return protocol.MakeIntReply((ms + 999) / 1000)
}

// execPTTL returns a key's time to live in milliseconds
func execPTTL(db *DB, args [][]byte) redis.Reply {
	return protocol.MakeIntReply(db.TTLms(string(args[0])))
}

// execPersist removes the expiration from a key
func execPersist(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	if !db.Persist(key) {
		return protocol.MakeIntReply(0)
	}
	db.addAofCmd(utils.ToCmdLine("persist", key))
	return protocol.MakeIntReply(1)
}

// execFlushDB removes all data in db
func execFlushDB(db *DB, args [][]byte) redis.Reply {
	db.Flush()
	db.addAofCmd(utils.ToCmdLine("flushdb"))
	return protocol.MakeOkReply()
}

func init() {
	registerCommand("del", execDel, -2, flagWrite)
	registerCommand("exists", execExists, -2, flagReadOnly)
	registerCommand("keys", execKeys, 2, flagReadOnly)
	registerCommand("dbsize", execDBSize, 1, flagReadOnly)
	registerCommand("type", execType, 2, flagReadOnly)
	registerCommand("expire", execExpire, 3, flagWrite)
	registerCommand("pexpire", execPExpire, 3, flagWrite)
	registerCommand("pexpireat", execPExpireAt, 3, flagWrite)
	registerCommand("ttl", execTTL, 2, flagReadOnly)
	registerCommand("pttl", execPTTL, 2, flagReadOnly)
	registerCommand("persist", execPersist, 2, flagWrite)
	registerCommand("flushdb", execFlushDB, -1, flagWrite)
}
