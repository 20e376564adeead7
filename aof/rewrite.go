package aof

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/hdt3213/solodis/datastruct/object"
	"github.com/hdt3213/solodis/lib/logger"
)

// Rewriting reports whether a background rewrite is in flight
func (persister *Persister) Rewriting() bool {
	return persister.rewriting
}

// Rewrite starts a background rewrite of the append-only file. The worker
// replays the frozen prefix of the live file into a private keyspace and
// dumps its minimal command form to a temp file; meanwhile SaveCmdLine
// queues every frame written after this point into the rewrite buffer for
// the merge. A no-op when a rewrite is already running or persistence is
// disabled.
func (persister *Persister) Rewrite() {
	if persister.rewriting || persister.aofFile == nil {
		return
	}
	// the prefix below fileSize must be on disk before the worker reads it
	if err := persister.aofFile.Sync(); err != nil {
		logger.Warn("fsync before rewrite failed: ", err)
		return
	}
	fileInfo, err := os.Stat(persister.aofFilename)
	if err != nil {
		logger.Warn(err)
		return
	}
	fileSize := fileInfo.Size()

	dir := filepath.Dir(persister.aofFilename)
	persister.tmpFilename = filepath.Join(dir, "temp-rewrite-"+strconv.Itoa(os.Getpid())+".aof")
	persister.rewriteBuffer = nil
	persister.rewriteDone = make(chan error, 1)
	persister.rewriting = true

	worker := &Persister{
		db:          persister.tmpDBMaker(),
		aofFilename: persister.aofFilename,
	}
	done := persister.rewriteDone
	tmpFilename := persister.tmpFilename
	go func() {
		done <- worker.dumpSnapshot(fileSize, tmpFilename)
	}()
}

// dumpSnapshot rebuilds the keyspace as of rewrite start from the first
// fileSize bytes of the live file and writes its reconstruction commands
// to tmpFilename. Runs off the engine goroutine; touches only the worker's
// private keyspace, the frozen prefix and the temp file.
func (worker *Persister) dumpSnapshot(fileSize int64, tmpFilename string) error {
	worker.LoadAof(fileSize)

	tmpFile, err := os.OpenFile(tmpFilename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	var writeErr error
	worker.db.ForEach(func(key string, obj *object.Object, expireAt int64) bool {
		if cmd := EntityToCmd(key, obj); cmd != nil {
			if _, err := tmpFile.Write(cmd.ToBytes()); err != nil {
				writeErr = err
				return false
			}
		}
		if expireAt >= 0 {
			if _, err := tmpFile.Write(MakeExpireCmd(key, expireAt).ToBytes()); err != nil {
				writeErr = err
				return false
			}
		}
		return true
	})
	if writeErr != nil {
		_ = tmpFile.Close()
		return writeErr
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	return tmpFile.Close()
}

// pollRewrite is the non-blocking completion check run from Tick
func (persister *Persister) pollRewrite() {
	if !persister.rewriting {
		return
	}
	select {
	case err := <-persister.rewriteDone:
		persister.finishRewrite(err)
	default:
	}
}

// finishRewrite merges the rewrite buffer into the temp file and swaps it
// over the live file. On worker failure the live file is untouched and the
// rewriting flag is cleared so a later attempt may run.
func (persister *Persister) finishRewrite(workerErr error) {
	defer func() {
		persister.rewriting = false
		persister.rewriteBuffer = nil
		persister.rewriteDone = nil
	}()
	if workerErr != nil {
		logger.Warnf("aof rewrite failed: %v", workerErr)
		_ = os.Remove(persister.tmpFilename)
		return
	}
	tmpFile, err := os.OpenFile(persister.tmpFilename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger.Warnf("open temp aof failed: %v", err)
		_ = os.Remove(persister.tmpFilename)
		return
	}
	// commands executed since rewrite start
	for _, frame := range persister.rewriteBuffer {
		if _, err := tmpFile.Write(frame); err != nil {
			logger.Warnf("merge rewrite buffer failed: %v", err)
			_ = tmpFile.Close()
			_ = os.Remove(persister.tmpFilename)
			return
		}
	}
	if err := tmpFile.Sync(); err != nil {
		logger.Warn(err)
	}
	_ = tmpFile.Close()

	// the live fd is replaced only after the merged file is persisted
	if err := os.Rename(persister.tmpFilename, persister.aofFilename); err != nil {
		logger.Warnf("rename temp aof failed: %v", err)
		_ = os.Remove(persister.tmpFilename)
		return
	}
	_ = persister.aofFile.Close()
	aofFile, err := os.OpenFile(persister.aofFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Warnf("reopen aof after rewrite failed: %v, disabling persistence", err)
		persister.aofFile = nil
		return
	}
	persister.aofFile = aofFile
	logger.Info("aof rewrite finished")
}
