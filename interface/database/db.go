package database

import (
	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/interface/redis"
)

// CmdLine is alias for [][]byte, represents a command line
type CmdLine = [][]byte

// DB is the interface the aof subsystem programs against; the transports
// drive the engine through tcp.Handler instead
type DB interface {
	Exec(cmdLine CmdLine) redis.Reply
	// ForEach visits every live key with its value and expire deadline
	// (-1 for none). Used by the aof rewrite to dump a keyspace.
	ForEach(consumer func(key string, obj *object.Object, expireAt int64) bool)
	Len() int
	Close()
}
