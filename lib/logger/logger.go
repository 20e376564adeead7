package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Settings stores config for Logger
type Settings struct {
	Path       string `yaml:"path"`
	Name       string `yaml:"name"`
	Ext        string `yaml:"ext"`
	TimeFormat string `yaml:"time-format"`
}

type LogLevel int

// Output levels
const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

const (
	flags              = log.LstdFlags
	defaultCallerDepth = 2
	bufferSize         = 1e5
)

type logEntry struct {
	msg   string
	level LogLevel
}

var levelFlags = []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// Logger writes leveled messages to stdout and optionally a log file.
// Formatting happens on the calling goroutine, output on a dedicated one.
type Logger struct {
	logFile   *os.File
	logger    *log.Logger
	entryChan chan *logEntry
	entryPool *sync.Pool
}

var defaultLogger = NewStdoutLogger()

// NewStdoutLogger creates a logger which prints msg to stdout
func NewStdoutLogger() *Logger {
	logger := &Logger{
		logFile:   nil,
		logger:    log.New(os.Stdout, "", flags),
		entryChan: make(chan *logEntry, bufferSize),
		entryPool: &sync.Pool{
			New: func() interface{} {
				return &logEntry{}
			},
		},
	}
	go func() {
		for e := range logger.entryChan {
			_ = logger.logger.Output(0, e.msg) // msg includes caller, no need for calldepth
			logger.entryPool.Put(e)
		}
	}()
	return logger
}

// NewFileLogger creates a logger which prints msg to stdout and a log file
func NewFileLogger(settings *Settings) (*Logger, error) {
	fileName := fmt.Sprintf("%s-%s.%s",
		settings.Name,
		time.Now().Format(settings.TimeFormat),
		settings.Ext)
	logFile, err := mustOpen(fileName, settings.Path)
	if err != nil {
		return nil, fmt.Errorf("logging.Join err: %s", err)
	}
	mw := io.MultiWriter(os.Stdout, logFile)
	logger := &Logger{
		logFile:   logFile,
		logger:    log.New(mw, "", flags),
		entryChan: make(chan *logEntry, bufferSize),
		entryPool: &sync.Pool{
			New: func() interface{} {
				return &logEntry{}
			},
		},
	}
	go func() {
		for e := range logger.entryChan {
			_ = logger.logger.Output(0, e.msg)
			logger.entryPool.Put(e)
		}
	}()
	return logger, nil
}

// Setup initializes the default logger with the given settings
func Setup(settings *Settings) {
	logger, err := NewFileLogger(settings)
	if err != nil {
		Fatal(err)
	}
	defaultLogger = logger
}

func mustOpen(fileName, dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dir %s failed: %s", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, fileName),
		os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file %s failed: %s", fileName, err)
	}
	return f, nil
}

// Output sends a log message with the given level to the output goroutine
func (logger *Logger) Output(level LogLevel, callerDepth int, msg string) {
	var formattedMsg string
	_, file, line, ok := runtime.Caller(callerDepth)
	if ok {
		formattedMsg = fmt.Sprintf("[%s][%s:%d] %s", levelFlags[level], filepath.Base(file), line, msg)
	} else {
		formattedMsg = fmt.Sprintf("[%s] %s", levelFlags[level], msg)
	}
	entry := logger.entryPool.Get().(*logEntry)
	entry.msg = formattedMsg
	entry.level = level
	logger.entryChan <- entry
	if level == FATAL {
		// drain so the message reaches the sink before exit
		for len(logger.entryChan) > 0 {
			time.Sleep(time.Millisecond)
		}
		os.Exit(1)
	}
}

// Debug logs debug message through the default logger
func Debug(v ...interface{}) {
	defaultLogger.Output(DEBUG, defaultCallerDepth, fmt.Sprint(v...))
}

// Debugf logs a formatted debug message through the default logger
func Debugf(format string, v ...interface{}) {
	defaultLogger.Output(DEBUG, defaultCallerDepth, fmt.Sprintf(format, v...))
}

// Info logs message through the default logger
func Info(v ...interface{}) {
	defaultLogger.Output(INFO, defaultCallerDepth, fmt.Sprint(v...))
}

// Infof logs a formatted message through the default logger
func Infof(format string, v ...interface{}) {
	defaultLogger.Output(INFO, defaultCallerDepth, fmt.Sprintf(format, v...))
}

// Warn logs warning message through the default logger
func Warn(v ...interface{}) {
	defaultLogger.Output(WARNING, defaultCallerDepth, fmt.Sprint(v...))
}

// Warnf logs a formatted warning message through the default logger
func Warnf(format string, v ...interface{}) {
	defaultLogger.Output(WARNING, defaultCallerDepth, fmt.Sprintf(format, v...))
}

// Error logs error message through the default logger
func Error(v ...interface{}) {
	defaultLogger.Output(ERROR, defaultCallerDepth, fmt.Sprint(v...))
}

// Errorf logs a formatted error message through the default logger
func Errorf(format string, v ...interface{}) {
	defaultLogger.Output(ERROR, defaultCallerDepth, fmt.Sprintf(format, v...))
}

// Fatal prints the message and exits
func Fatal(v ...interface{}) {
	defaultLogger.Output(FATAL, defaultCallerDepth, fmt.Sprint(v...))
}
