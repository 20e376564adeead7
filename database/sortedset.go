package database

import (
	"strconv"
	"strings"

	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/datastruct/sortedset"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/utils"
	"github.com/hdt3213/solodis/redis/protocol"
)

func (db *DB) getAsSortedSet(key string) (*sortedset.SortedSet, protocol.ErrorReply) {
	obj, ok := db.GetEntity(key)
	if !ok {
		return nil, nil
	}
	if obj.Type != object.TypeZSet {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return obj.ZSet, nil
}

// formatScore spells a score the way redis does (%.17g)
func formatScore(score float64) []byte {
	return []byte(strconv.FormatFloat(score, 'g', 17, 64))
}

// execZAdd adds score-member pairs, returning the number newly added.
// Updating the score of an existing member repositions it but is not
// counted.
func execZAdd(db *DB, args [][]byte) redis.Reply {
	if len(args)%2 != 1 {
		return protocol.MakeArgNumErrReply("zadd")
	}
	key := string(args[0])
	// parse every score first so a bad one leaves the keyspace untouched
	scores := make([]float64, 0, len(args)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not a valid float")
		}
		scores = append(scores, score)
	}
	zset, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		obj := object.MakeZSet()
		db.PutEntity(key, obj)
		zset = obj.ZSet
	}
	added := int64(0)
	for i := 1; i < len(args); i += 2 {
		if zset.Add(string(args[i+1]), scores[i/2]) {
			added++
		}
	}
	db.addAofCmd(utils.ToCmdLine3("zadd", args...))
	return protocol.MakeIntReply(added)
}

// execZScore returns the score of the given member
func execZScore(db *DB, args [][]byte) redis.Reply {
	zset, errReply := db.getAsSortedSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		return protocol.MakeNullBulkReply()
	}
	element, ok := zset.Get(string(args[1]))
	if !ok {
		return protocol.MakeNullBulkReply()
	}
	return protocol.MakeBulkReply(formatScore(element.Score))
}

// execZRank returns the 0-based ascending rank of the given member
func execZRank(db *DB, args [][]byte) redis.Reply {
	zset, errReply := db.getAsSortedSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		return protocol.MakeNullBulkReply()
	}
	rank := zset.GetRank(string(args[1]))
	if rank < 0 {
		return protocol.MakeNullBulkReply()
	}
	return protocol.MakeIntReply(rank)
}

// execZRange returns members with rank between start and stop, ascending
func execZRange(db *DB, args [][]byte) redis.Reply {
	withScores := false
	if len(args) == 4 {
		if !strings.EqualFold(string(args[3]), "WITHSCORES") {
			return protocol.MakeErrReply("ERR syntax error")
		}
		withScores = true
	} else if len(args) != 3 {
		return protocol.MakeArgNumErrReply("zrange")
	}
	start, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	zset, errReply := db.getAsSortedSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}
	start, stop, ok := normalizeRange(start, stop, zset.Len())
	if !ok {
		return protocol.MakeEmptyMultiBulkReply()
	}
	elements := zset.RangeByRank(start, stop+1)
	var result [][]byte
	if withScores {
		result = make([][]byte, 0, len(elements)*2)
		for _, e := range elements {
			result = append(result, []byte(e.Member), formatScore(e.Score))
		}
	} else {
		result = make([][]byte, 0, len(elements))
		for _, e := range elements {
			result = append(result, []byte(e.Member))
		}
	}
	return protocol.MakeMultiBulkReply(result)
}

// execZCard returns the number of members in the sorted set
func execZCard(db *DB, args [][]byte) redis.Reply {
	zset, errReply := db.getAsSortedSet(string(args[0]))
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(zset.Len())
}

// execZRem removes members, returning the number removed
func execZRem(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	zset, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if zset == nil {
		return protocol.MakeIntReply(0)
	}
	removed := int64(0)
	for _, member := range args[1:] {
		if zset.Remove(string(member)) {
			removed++
		}
	}
	if zset.Len() == 0 {
		db.Remove(key)
	}
	if removed > 0 {
		db.addAofCmd(utils.ToCmdLine3("zrem", args...))
	}
	return protocol.MakeIntReply(removed)
}

func init() {
	registerCommand("zadd", execZAdd, -4, flagWrite)
	registerCommand("zscore", execZScore, 3, flagReadOnly)
	registerCommand("zrank", execZRank, 3, flagReadOnly)
	registerCommand("zrange", execZRange, -4, flagReadOnly)
	registerCommand("zcard", execZCard, 2, flagReadOnly)
	registerCommand("zrem", execZRem, -3, flagWrite)
}
