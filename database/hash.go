package database

import (
	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/redis/protocol"
)

func (db *DB) getAsHash(key string) (map[string]string, protocol.ErrorReply) {
	obj, ok := db.GetEntity(key)
	if !ok {
		return nil, nil
	}
	if obj.Type != object.TypeHash {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return obj.Hash, nil
}

// execHSet sets fields in the hash, returning the number of new fields
func execHSet(db *DB, args [][]byte) redis.Reply {
	if len(args)%2 != 1 {
		return protocol.MakeArgNumErrReply("hset")
	}
	key := string(args[0])
	hash, errReply := db.getAsHash(key)
	if errReply != nil {
		return errReply
	}
	if hash == nil {
		obj := object.MakeHash()
		db.PutEntity(key, obj)
		hash = obj.Hash
	}
	added := int64(0)
	for i := 1; i < len(args); i += 2 {
		field := string(args[i])
		if _, ok := hash[field]; !ok {
			added++
		}
		hash[field] = string(args[i+1])
	}
	db.addAofCmd(utils.ToCmdLine3("hset", args...))
	return protocol.MakeIntReply(added)
}

// execHGet returns the value of a hash field
func execHGet(db *DB, args [][]byte) redis.Reply {
	hash, errReply := db.getAsHash(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if hash == nil {
		return protocol.MakeNullBulkReply()
	}
	val, ok := hash[string(args[1])]
	if !ok {
		return protocol.MakeNullBulkReply()
	}
	return protocol.MakeBulkReply([]byte(val))
}

// execHExists checks whether a hash field exists
func execHExists(db *DB, args [][]byte) redis.Reply {
	hash, errReply := db.getAsHash(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if hash == nil {
		return protocol.MakeIntReply(0)
	}
	if _, ok := hash[string(args[1])]; ok {
		return protocol.MakeIntReply(1)
	}
	return protocol.MakeIntReply(0)
}

// execHDel deletes hash fields, returning the number removed
func execHDel(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	hash, errReply := db.getAsHash(key)
	if errReply != nil {
		return errReply
	}
	if hash == nil {
		return protocol.MakeIntReply(0)
	}
	deleted := int64(0)
	for _, field := range args[1:] {
		if _, ok := hash[string(field)]; ok {
			delete(hash, string(field))
			deleted++
		}
	}
	if len(hash) == 0 {
		db.Remove(key)
	}
	if deleted > 0 {
		db.addAofCmd(utils.ToCmdLine3("hdel", args...))
	}
	return protocol.MakeIntReply(deleted)
}

// execHGetAll returns all fields and values as a flat array
func execHGetAll(db *DB, args [][]byte) redis.Reply {
	hash, errReply := db.getAsHash(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if hash == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}
	result := make([][]byte, 0, len(hash)*2)
	for field, val := range hash {
		result = append(result, []byte(field), []byte(val))
	}
	return protocol.MakeMultiBulkReply(result)
}

// execHLen returns the number of fields in the hash
func execHLen(db *DB, args [][]byte) redis.Reply {
	hash, errReply := db.getAsHash(string(args[0]))
	if errReply != nil {
		return errReply
	}
	return protocol.MakeIntReply(int64(len(hash)))
}

func init() {
	registerCommand("hset", execHSet, -4, flagWrite)
	registerCommand("hget", execHGet, 3, flagReadOnly)
	registerCommand("hexists", execHExists, 3, flagReadOnly)
	registerCommand("hdel", execHDel, -3, flagWrite)
	registerCommand("hgetall", execHGetAll, 2, flagReadOnly)
	registerCommand("hlen", execHLen, 2, flagReadOnly)
}
