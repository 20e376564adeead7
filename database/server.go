package database

import (
	"strings"

	"github.com/hdt3213/solodis/aof"
	"github.com/hdt3213/solodis/config"
	"github.com/hdt3213/solodis/datastruct/object"
	databaseface "github.com/hdt3213/solodis/interface/database"
	"github.com/hdt3213/solodis/interface/redis"
	"github.com/hdt3213/solodis/lib/logger"
	"github.com/hdt3213/solodis/redis/protocol"
)

// Server is the engine facade the transports talk to: the keyspace plus
// the aof persister. It is driven entirely from one goroutine; Tick is
// the reactor's periodic entry point.
type Server struct {
	db        *DB
	persister *aof.Persister
}

// NewStandaloneServer creates an engine, replaying the append-only file
// when persistence is configured
func NewStandaloneServer() *Server {
	server := &Server{
		db: MakeDB(),
	}
	if config.Properties.AppendOnly {
		fsync := strings.ToLower(config.Properties.AppendFsync)
		switch fsync {
		case aof.FsyncAlways, aof.FsyncEverySec, aof.FsyncNo:
		default:
			logger.Warnf("unknown appendfsync %q, using everysec", fsync)
			fsync = aof.FsyncEverySec
		}
		persister := aof.NewPersister(server.db, config.Properties.AppendFilename, fsync,
			func() databaseface.DB {
				return MakeDB()
			})
		server.persister = persister
		server.db.addAof = persister.SaveCmdLine
	}
	return server
}

// Exec dispatches one command and returns its reply. A nil reply means the
// command was an empty frame and produced no bytes.
func (server *Server) Exec(cmdLine CmdLine) (result redis.Reply) {
	defer func() {
		if err := recover(); err != nil {
			logger.Warnf("error occurs: %v", err)
			result = &protocol.UnknownErrReply{}
		}
	}()
	if len(cmdLine) == 0 {
		return nil
	}
	if strings.ToLower(string(cmdLine[0])) == "bgrewriteaof" {
		return server.execBGRewriteAOF(cmdLine[1:])
	}
	return server.db.Exec(cmdLine)
}

// execBGRewriteAOF starts an aof rewrite unless one is already running
func (server *Server) execBGRewriteAOF(args [][]byte) redis.Reply {
	if len(args) != 0 {
		return protocol.MakeArgNumErrReply("bgrewriteaof")
	}
	if server.persister == nil || !server.persister.Enabled() {
		return protocol.MakeErrReply("ERR append only file is disabled")
	}
	if server.persister.Rewriting() {
		return protocol.MakeStatusReply("Background append only file rewriting already in progress")
	}
	server.persister.Rewrite()
	return protocol.MakeStatusReply("Background append only file rewriting started")
}

// Tick runs the periodic engine duties: bounded active expiry, one rehash
// batch, the everysec fsync and the rewrite completion poll.
func (server *Server) Tick() {
	server.db.ActiveExpire(activeExpireWork)
	server.db.RehashStep()
	if server.persister != nil {
		server.persister.Tick()
	}
}

// ForEach visits every live key
func (server *Server) ForEach(consumer func(key string, obj *object.Object, expireAt int64) bool) {
	server.db.ForEach(consumer)
}

// Len returns the number of live keys
func (server *Server) Len() int {
	return server.db.Len()
}

// Close flushes the append-only file and shuts the engine down
func (server *Server) Close() {
	if server.persister != nil {
		server.persister.Close()
	}
}
