package database

import (
	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/datastruct/set"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/redis/protocol"
)

func (db *DB) getAsSet(key string) (*set.Set, protocol.ErrorReply) {
	obj, ok := db.GetEntity(key)
	if !ok {
		return nil, nil
	}
	if obj.Type != object.TypeSet {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return obj.Set, nil
}

// execSAdd adds members to the set, returning the number newly added
func execSAdd(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	s, errReply := db.getAsSet(key)
	if errReply != nil {
		return errReply
	}
	if s == nil {
		obj := object.MakeSet()
		db.PutEntity(key, obj)
		s = obj.Set
	}
	added := int64(0)
	for _, member := range args[1:] {
		added += int64(s.Add(string(member)))
	}
	db.addAofCmd(utils.ToCmdLine3("sadd", args...))
	return protocol.MakeIntReply(added)
}

// execSRem removes members from the set, returning the number removed
func execSRem(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	s, errReply := db.getAsSet(key)
	if errReply != nil {
		return errReply
	}
	if s == nil {
		return protocol.MakeIntReply(0)
	}
	removed := int64(0)
	for _, member := range args[1:] {
		removed += int64(s.Remove(string(member)))
	}
	if s.Len() == 0 {
		db.Remove(key)
	}
	if removed > 0 {
		db.addAofCmd(utils.ToCmdLine3("srem", args...))
	}
	return protocol.MakeIntReply(removed)
}

// execSIsMember checks whether the given member is in the set
func execSIsMember(db *DB, args [][]byte) redis.Reply {
	s, errReply := db.getAsSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if s == nil || !s.Has(string(args[1])) {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(1)
}

// execSMembers returns all members of the set
func execSMembers(db *DB, args [][]byte) redis.Reply {
	s, errReply := db.getAsSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if s == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}
	result := make([][]byte, 0, s.Len())
	s.ForEach(func(member string) bool {
		result = append(result, []byte(member))
		return true
	})
	return protocol.MakeMultiBulkReply(result)
}

// execSCard returns the number of members in the set
func execSCard(db *DB, args [][]byte) redis.Reply {
	s, errReply := db.getAsSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if s == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(int64(s.Len()))
}

func init() {
	registerCommand("sadd", execSAdd, -3, flagWrite)
	registerCommand("srem", execSRem, -3, flagWrite)
	registerCommand("sismember", execSIsMember, 3, flagReadOnly)
	registerCommand("smembers", execSMembers, 2, flagReadOnly)
	registerCommand("scard", execSCard, 2, flagReadOnly)
}
