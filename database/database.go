package database

import (
	"strings"
	"time"

	"github.com/hdt3213/solodis/datastruct/dict"
	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/datastruct/ttlheap"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/redis/protocol"
)

// CmdLine is alias for [][]byte, represents a command line
type CmdLine = [][]byte

const (
	rehashStepPerTick = 128
	activeExpireWork  = 200
)

// DB is the keyspace: the dictionary of typed values composed with the TTL
// index. Every read path lazy-expires the key it touches; the reactor tick
// drives bounded active expiry and rehash progress.
//
// All methods must be called from the engine goroutine.
type DB struct {
	data *dict.Dict
	ttl  *ttlheap.Heap

	// addAof is set by the owning server once the AOF has been loaded;
	// nil while replaying or when persistence is off
	addAof func(CmdLine)
}

// MakeDB creates an empty keyspace
func MakeDB() *DB {
	return &DB{
		data: dict.MakeDict(),
		ttl:  ttlheap.MakeHeap(),
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// expireIfNeeded removes the key from both structures if its deadline has
// passed. Returns true if the entry was expired and removed.
func (db *DB) expireIfNeeded(entry *dict.Entry) bool {
	if entry.ExpireAt < 0 || nowMs() < entry.ExpireAt {
		return false
	}
	db.ttl.Remove(entry.Key)
	db.data.Remove(entry.Key)
	return true
}

// GetEntity returns the value bound to key, observing lazy expiry
func (db *DB) GetEntity(key string) (*object.Object, bool) {
	entry := db.data.Find(key)
	if entry == nil {
		return nil, false
	}
	if db.expireIfNeeded(entry) {
		return nil, false
	}
	return entry.Val.(*object.Object), true
}

// PutEntity binds key to the given value without touching its TTL
func (db *DB) PutEntity(key string, obj *object.Object) int {
	return db.data.Put(key, obj)
}

// Remove deletes key from the keyspace and the TTL index
func (db *DB) Remove(key string) bool {
	db.ttl.Remove(key)
	return db.data.Remove(key)
}

// Removes deletes the given keys and returns the number removed
func (db *DB) Removes(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if _, ok := db.GetEntity(key); ok {
			db.Remove(key)
			deleted++
		}
	}
	return deleted
}

// Exists reports whether key is present, observing lazy expiry
func (db *DB) Exists(key string) bool {
	_, ok := db.GetEntity(key)
	return ok
}

// Expire sets an absolute expire deadline on an existing key
func (db *DB) Expire(key string, deadlineMs int64) bool {
	entry := db.data.Find(key)
	if entry == nil || db.expireIfNeeded(entry) {
		return false
	}
	entry.ExpireAt = deadlineMs
	db.ttl.Push(key, deadlineMs)
	return true
}

// Persist clears the expire deadline of key
func (db *DB) Persist(key string) bool {
	entry := db.data.Find(key)
	if entry == nil || db.expireIfNeeded(entry) || entry.ExpireAt < 0 {
		return false
	}
	entry.ExpireAt = -1
	db.ttl.Remove(key)
	return true
}

// TTLms returns the remaining life of key in milliseconds, -1 for no
// expiry, -2 for a missing (or just expired) key
func (db *DB) TTLms(key string) int64 {
	entry := db.data.Find(key)
	if entry == nil || db.expireIfNeeded(entry) {
		return -2
	}
	if entry.ExpireAt < 0 {
		return -1
	}
	return entry.ExpireAt - nowMs()
}

// ExpireAt returns the raw deadline of key, -1 for none
func (db *DB) ExpireAt(key string) int64 {
	entry := db.data.Find(key)
	if entry == nil {
		return -1
	}
	return entry.ExpireAt
}

// ActiveExpire pops up to maxWork overdue keys from the TTL index and
// removes them from the dictionary
func (db *DB) ActiveExpire(maxWork int) {
	for _, key := range db.ttl.PopExpired(nowMs(), maxWork) {
		db.data.Remove(key)
	}
}

// RehashStep advances incremental rehashing by one bounded batch
func (db *DB) RehashStep() {
	db.data.RehashStep(rehashStepPerTick)
}

// Flush drops every key
func (db *DB) Flush() {
	db.data = dict.MakeDict()
	db.ttl = ttlheap.MakeHeap()
}

// Len returns the number of live keys
func (db *DB) Len() int {
	return db.data.Len()
}

// Keys returns a snapshot of all key names
func (db *DB) Keys() []string {
	return db.data.Keys()
}

// ForEach visits every key with its value and expire deadline
func (db *DB) ForEach(consumer func(key string, obj *object.Object, expireAt int64) bool) {
	db.data.ForEach(func(e *dict.Entry) bool {
		return consumer(e.Key, e.Val.(*object.Object), e.ExpireAt)
	})
}

// Exec dispatches a command line against this keyspace. An empty command
// (a null array frame) is a no-op and yields no reply.
func (db *DB) Exec(cmdLine CmdLine) redis.Reply {
	if len(cmdLine) == 0 {
		return nil
	}
	name := strings.ToLower(string(cmdLine[0]))
	cmd, ok := cmdTable[name]
	if !ok {
		return protocol.MakeErrReply("ERR unknown command '" + string(cmdLine[0]) + "'")
	}
	if !validateArity(cmd.arity, cmdLine) {
		return protocol.MakeArgNumErrReply(name)
	}
	return cmd.executor(db, cmdLine[1:])
}

// Close satisfies the engine interface; a bare keyspace owns no resources
func (db *DB) Close() {
}

func validateArity(arity int, cmdArgs [][]byte) bool {
	argNum := len(cmdArgs)
	if arity >= 0 {
		return argNum == arity
	}
	return argNum >= -arity
}

func (db *DB) addAofCmd(cmdLine CmdLine) {
	if db.addAof != nil {
		db.addAof(cmdLine)
	}
}
