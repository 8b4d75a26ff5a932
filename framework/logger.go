package framework

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the harness.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

// ZapLogger adapts a zap logger to the Logger interface. Messages are logged at the level
// the ZapLogger was created with.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

// NewZapLogger builds a console logger writing to dest. An unrecognized level name falls back
// to info.
func NewZapLogger(dest io.Writer, levelName string) *ZapLogger {
	if dest == nil {
		dest = os.Stdout
	}
	level, err := zapcore.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		level = zapcore.InfoLevel
	}
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timestampFormat),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(dest),
		zap.NewAtomicLevelAt(level),
	)
	return &ZapLogger{sugar: zap.New(core).Sugar(), level: zapcore.InfoLevel}
}

// Named returns a logger for a subcomponent.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.Named(name), level: l.level}
}

// AtLevel returns a logger whose Printf output is emitted at the given level.
func (l *ZapLogger) AtLevel(level zapcore.Level) *ZapLogger {
	return &ZapLogger{sugar: l.sugar, level: level}
}

func (l *ZapLogger) Printf(message string, args ...interface{}) {
	l.sugar.Logf(l.level, message, args...)
}

// Sugar exposes the underlying logger for structured key/value logging.
func (l *ZapLogger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps every message in memory so it can be shown later, for instance only if
// a test fails.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}

// multiLogger sends each message to several loggers.
type multiLogger []Logger

// TeeLogger returns a Logger that writes to all of the non-nil loggers given.
func TeeLogger(loggers ...Logger) Logger {
	var ret multiLogger
	for _, l := range loggers {
		if l != nil {
			ret = append(ret, l)
		}
	}
	if len(ret) == 1 {
		return ret[0]
	}
	return ret
}

func (m multiLogger) Printf(message string, args ...interface{}) {
	for _, l := range m {
		l.Printf(message, args...)
	}
}
