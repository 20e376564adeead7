package database

import (
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/redis/protocol"
)

// Ping the server
func Ping(db *DB, args [][]byte) redis.Reply {
	if len(args) == 0 {
		return &protocol.PongReply{}
	} else if len(args) == 1 {
		return protocol.MakeBulkReply(args[0])
	}
	return protocol.MakeArgNumErrReply("ping")
}

func init() {
	registerCommand("ping", Ping, -1, flagReadOnly)
}
