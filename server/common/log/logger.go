package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultLogFilePath  = "./logs/stream_server.log"
	defaultMaxSizeBytes = 20 * 1024 * 1024
	envLogFilePath      = "LOG_FILE_PATH"
	envLogMaxSizeMB     = "LOG_MAX_SIZE_MB"
	envLogFormat        = "LOG_FORMAT"
	envLogLevel         = "LOG_LEVEL"
	logFormatText       = "text"
	logFormatJSON       = "json"
)

type logger struct {
	console zerolog.Logger
	file    zerolog.Logger
	out     *rotatingFile
}

var global = newLoggerFromEnv()

func newLoggerFromEnv() *logger {
	path := strings.TrimSpace(os.Getenv(envLogFilePath))
	if path == "" {
		path = defaultLogFilePath
	}

	maxSizeBytes := int64(defaultMaxSizeBytes)
	if raw := strings.TrimSpace(os.Getenv(envLogMaxSizeMB)); raw != "" {
		if sizeMB, err := strconv.Atoi(raw); err == nil && sizeMB > 0 {
			maxSizeBytes = int64(sizeMB) * 1024 * 1024
		}
	}
	format := strings.ToLower(strings.TrimSpace(os.Getenv(envLogFormat)))
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel))))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.DebugLevel
	}
	return newLogger(os.Stdout, path, maxSizeBytes, format, level)
}

func newLogger(stdout io.Writer, path string, maxSizeBytes int64, format string, level zerolog.Level) *logger {
	if format != logFormatJSON {
		format = logFormatText
	}
	out := &rotatingFile{filePath: path, maxSizeBytes: maxSizeBytes}

	var fileWriter io.Writer = out
	if format == logFormatText {
		fileWriter = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339Nano}
	}
	console := zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339Nano}

	return &logger{
		console: zerolog.New(console).Level(level).With().Timestamp().Logger(),
		file:    zerolog.New(fileWriter).Level(level).With().Timestamp().Logger(),
		out:     out,
	}
}

func Debugf(format string, args ...any) {
	global.logf(zerolog.DebugLevel, false, format, args...)
}

func Infof(format string, args ...any) {
	global.logf(zerolog.InfoLevel, false, format, args...)
}

func Warnf(format string, args ...any) {
	global.logf(zerolog.WarnLevel, false, format, args...)
}

func Errorf(format string, args ...any) {
	global.logf(zerolog.ErrorLevel, false, format, args...)
}

// Exceptionf logs at error level and marks the entry as an exception, used
// for recovered panics and other conditions that should never happen.
func Exceptionf(format string, args ...any) {
	global.logf(zerolog.ErrorLevel, true, format, args...)
}

func (l *logger) logf(lv zerolog.Level, exception bool, format string, args ...any) {
	caller := callerFuncName(3)
	message := fmt.Sprintf(format, args...)
	for _, target := range []*zerolog.Logger{&l.console, &l.file} {
		ev := target.WithLevel(lv).Str("caller", caller)
		if exception {
			ev = ev.Bool("exception", true)
		}
		ev.Msg(message)
	}
}

type rotatingFile struct {
	mu           sync.Mutex
	filePath     string
	maxSizeBytes int64
	file         *os.File
}

func (w *rotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpen(); err != nil {
		fmt.Fprintf(os.Stderr, "logger open file error: %v\n", err)
		return len(p), nil
	}
	if err := w.rotateIfNeeded(int64(len(p))); err != nil {
		fmt.Fprintf(os.Stderr, "logger rotate error: %v\n", err)
		return len(p), nil
	}
	if _, err := w.file.Write(p); err != nil {
		fmt.Fprintf(os.Stderr, "logger write error: %v\n", err)
	}
	return len(p), nil
}

func (w *rotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingFile) ensureOpen() error {
	if w.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.filePath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

func (w *rotatingFile) rotateIfNeeded(incomingSize int64) error {
	stat, err := w.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 || stat.Size()+incomingSize <= w.maxSizeBytes {
		return nil
	}

	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	rotatedPath, err := nextRotatedPath(w.filePath)
	if err != nil {
		return err
	}
	if err := os.Rename(w.filePath, rotatedPath); err != nil {
		return err
	}

	f, err := os.OpenFile(w.filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

func nextRotatedPath(currentPath string) (string, error) {
	dir := filepath.Dir(currentPath)
	ext := filepath.Ext(currentPath)
	base := strings.TrimSuffix(filepath.Base(currentPath), ext)
	ts := time.Now().Format("20060102_150405")

	for index := 1; ; index++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", base, ts, index, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
}

func callerFuncName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	fullName := fn.Name()
	parts := strings.Split(fullName, "/")
	return parts[len(parts)-1]
}
