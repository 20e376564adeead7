package aof

import (
	"io"
	"os"
	"time"

	"github.com/hdt3213/solodis/interface/database"
	"github.com/hdt3213/solodis/lib/iobuf"
	"github.com/hdt3213/solodis/lib/logger"
	"github.com/hdt3213/solodis/redis/parser"
	"github.com/hdt3213/solodis/redis/protocol"
)

// CmdLine is alias for [][]byte, represents a command line
type CmdLine = [][]byte

// Fsync policies
const (
	// FsyncAlways fsyncs after every append
	FsyncAlways = "always"
	// FsyncEverySec fsyncs once per second from the reactor tick
	FsyncEverySec = "everysec"
	// FsyncNo leaves flushing to the operating system
	FsyncNo = "no"
)

const fsyncInterval = time.Second

const loadBufSize = 64 * 1024

// Persister appends executed write commands to the append-only file and
// owns the background rewrite. All methods except the rewrite worker run
// on the engine goroutine; the worker (started by Rewrite) touches only
// its own temp keyspace, its own temp file and the frozen prefix of the
// live file.
type Persister struct {
	db          database.DB
	tmpDBMaker  func() database.DB
	aofFilename string
	aofFsync    string
	aofFile     *os.File
	lastFsync   time.Time

	// rewrite state, owned by the engine goroutine
	rewriting     bool
	rewriteBuffer [][]byte
	rewriteDone   chan error
	tmpFilename   string
}

// NewPersister replays the existing file into db, then opens it for
// appending. A failed open logs a warning and leaves the persister
// permanently disabled: appends become no-ops and the server keeps
// serving from memory.
func NewPersister(db database.DB, filename string, fsync string, tmpDBMaker func() database.DB) *Persister {
	persister := &Persister{
		db:          db,
		tmpDBMaker:  tmpDBMaker,
		aofFilename: filename,
		aofFsync:    fsync,
		lastFsync:   time.Now(),
	}
	persister.LoadAof(0)
	aofFile, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Warnf("open aof file %s failed: %v, running without persistence", filename, err)
		return persister
	}
	persister.aofFile = aofFile
	return persister
}

// Enabled reports whether appends reach a file
func (persister *Persister) Enabled() bool {
	return persister.aofFile != nil
}

// SaveCmdLine appends an executed write command to the file, observing the
// fsync policy. While a rewrite is in flight the frame is also queued for
// the post-rewrite merge.
func (persister *Persister) SaveCmdLine(cmdLine CmdLine) {
	if persister.aofFile == nil {
		return
	}
	data := protocol.MakeMultiBulkReply(cmdLine).ToBytes()
	if _, err := persister.aofFile.Write(data); err != nil {
		logger.Warnf("write aof failed: %v, disabling persistence", err)
		_ = persister.aofFile.Close()
		persister.aofFile = nil
		return
	}
	if persister.aofFsync == FsyncAlways {
		if err := persister.aofFile.Sync(); err != nil {
			logger.Warn(err)
		}
	}
	if persister.rewriting {
		persister.rewriteBuffer = append(persister.rewriteBuffer, data)
	}
}

// Tick runs the periodic aof duties: the everysec fsync and the
// non-blocking rewrite completion poll.
func (persister *Persister) Tick() {
	persister.fsyncIfDue()
	persister.pollRewrite()
}

func (persister *Persister) fsyncIfDue() {
	if persister.aofFsync != FsyncEverySec || persister.aofFile == nil {
		return
	}
	now := time.Now()
	if now.Sub(persister.lastFsync) < fsyncInterval {
		return
	}
	if err := persister.aofFile.Sync(); err != nil {
		logger.Warn(err)
	}
	persister.lastFsync = now
}

// LoadAof replays the valid prefix of the append-only file into db.
// maxBytes limits how much of the file is read; 0 means the whole file.
// A malformed or truncated tail is dropped with a warning.
func (persister *Persister) LoadAof(maxBytes int64) {
	file, err := os.Open(persister.aofFilename)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn(err)
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes)
	}

	var buf iobuf.Buffer
	chunk := make([]byte, loadBufSize)
	eof := false
	for {
		for !eof {
			n, err := reader.Read(chunk)
			if n > 0 {
				buf.Append(chunk[:n])
			}
			if err != nil {
				eof = true
			}
			if n > 0 {
				break
			}
		}
		cmdLine, err := parser.Parse(&buf)
		if err == parser.ErrIncomplete {
			if !eof {
				continue
			}
			if buf.Readable() > 0 {
				logger.Warnf("aof %s has a truncated tail of %d bytes, dropped", persister.aofFilename, buf.Readable())
			}
			return
		}
		if err != nil {
			logger.Warnf("aof %s has a malformed tail, dropped: %v", persister.aofFilename, err)
			return
		}
		if len(cmdLine) == 0 {
			continue
		}
		ret := persister.db.Exec(cmdLine)
		if ret != nil && protocol.IsErrorReply(ret) {
			logger.Errorf("replay %s failed: %s", string(cmdLine[0]), string(ret.ToBytes()))
		}
	}
}

// Fsync forces the file to stable storage
func (persister *Persister) Fsync() {
	if persister.aofFile != nil {
		if err := persister.aofFile.Sync(); err != nil {
			logger.Warn(err)
		}
	}
}

// Close flushes and closes the append-only file
func (persister *Persister) Close() {
	if persister.aofFile != nil {
		if err := persister.aofFile.Sync(); err != nil {
			logger.Warn(err)
		}
		if err := persister.aofFile.Close(); err != nil {
			logger.Warn(err)
		}
		persister.aofFile = nil
	}
}
