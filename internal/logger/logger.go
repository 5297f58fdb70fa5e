package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"visionserver/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names double as log file names (info.log, warning.log, error.log).
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger writing into the configured log directory.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	infoWriter := io.MultiWriter(os.Stdout, logger.openLogFile(LevelInfo))
	warningWriter := io.MultiWriter(os.Stdout, logger.openLogFile(LevelWarning))
	errorWriter := io.MultiWriter(os.Stderr, logger.openLogFile(LevelError))

	logger.setupLoggers(infoWriter, warningWriter, errorWriter)
	return logger
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() *Logger {
	logger := &Logger{files: make(map[string]*lumberjack.Logger)}
	logger.setupLoggers(io.Discard, io.Discard, io.Discard)
	return logger
}

func (l *Logger) setupLoggers(info, warning, errorW io.Writer) {
	l.infoLog = log.New(info, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warning, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorW, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openLogFile returns a size-rotated writer for the given level.
func (l *Logger) openLogFile(level string) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, level+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	l.files[level] = file
	return file
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Dir returns the directory holding the log files, empty for a discarding logger.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the log file of the given level.
func (l *Logger) CleanLogs(level string) error {
	l.mu.Lock()
	file, ok := l.files[level]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown log level: %s", level)
	}

	// Close the rotated writer first; lumberjack reopens it on the next write.
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s log: %w", level, err)
	}
	if err := os.Truncate(file.Filename, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate %s log: %w", level, err)
	}

	l.Info("%s.log content has been cleared.", level)
	return nil
}

// Close flushes and closes every log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
