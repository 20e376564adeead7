package database

import (
	"strings"

	"github.com/hdt3213/solodis/interface/redis"
)

var cmdTable = make(map[string]*command)

// ExecFunc is the signature of a command handler. args holds the command
// arguments without the command name. A handler returns exactly one reply.
type ExecFunc func(db *DB, args [][]byte) redis.Reply

type command struct {
	name     string
	executor ExecFunc
	// arity means allowed number of cmdArgs, arity < 0 means len(args) >= -arity.
	// for example: the arity of `get` is 2, `mget` is -2
	arity int
	flags int
}

const flagWrite = 0

const (
	flagReadOnly = 1 << iota
)

// registerCommand registers a command handler into the dispatch table
func registerCommand(name string, executor ExecFunc, arity int, flags int) *command {
	name = strings.ToLower(name)
	cmd := &command{
		name:     name,
		executor: executor,
		arity:    arity,
		flags:    flags,
	}
	cmdTable[name] = cmd
	return cmd
}

func isReadOnlyCommand(name string) bool {
	cmd := cmdTable[strings.ToLower(name)]
	if cmd == nil {
		return false
	}
	return cmd.flags&flagReadOnly > 0
}
