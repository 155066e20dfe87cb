package neat

import (
	"fmt"
	"github.com/pkg/errors"
	"log"
	"os"
)

// LoggerLevel selects which of the evolution driver's, crossval trainer's, and REPL's log
// messages reach output, per spec §9's logging-cadence note.
type LoggerLevel string

const (
	LogLevelDebug   LoggerLevel = "debug"
	LogLevelInfo    LoggerLevel = "info"
	LogLevelWarning LoggerLevel = "warn"
	LogLevelError   LoggerLevel = "error"
)

// levelRank orders the levels from most to least verbose; a message at targetLevel is emitted
// when currentLevel's rank is at or below it.
var levelRank = map[LoggerLevel]int{
	LogLevelDebug:   0,
	LogLevelInfo:    1,
	LogLevelWarning: 2,
	LogLevelError:   3,
}

var (
	// LogLevel is the active threshold; messages below it are dropped.
	LogLevel LoggerLevel

	loggerDebug = log.New(os.Stdout, "GEN-DEBUG: ", log.Ltime|log.Lshortfile)
	loggerInfo  = log.New(os.Stdout, "GEN-INFO: ", log.Ltime|log.Lshortfile)
	loggerWarn  = log.New(os.Stdout, "GEN-WARN: ", log.Ltime|log.Lshortfile)
	loggerError = log.New(os.Stderr, "GEN-ERROR: ", log.Ltime|log.Lshortfile)

	// DebugLog emits message if LogLevel is debug.
	DebugLog = func(message string) {
		if acceptLogLevel(LogLevel, LogLevelDebug) {
			_ = loggerDebug.Output(2, message)
		}
	}
	// InfoLog emits message if LogLevel is info or more verbose.
	InfoLog = func(message string) {
		if acceptLogLevel(LogLevel, LogLevelInfo) {
			_ = loggerInfo.Output(2, message)
		}
	}
	// WarnLog emits message if LogLevel is warn or more verbose. The evolution driver and REPL
	// use this level for recoverable per-genome/per-command failures.
	WarnLog = func(message string) {
		if acceptLogLevel(LogLevel, LogLevelWarning) {
			_ = loggerWarn.Output(2, message)
		}
	}
	// ErrorLog emits message at every supported LogLevel; like the other three, it drops the
	// message while LogLevel is unset or unsupported.
	ErrorLog = func(message string) {
		if acceptLogLevel(LogLevel, LogLevelError) {
			_ = loggerError.Output(2, message)
		}
	}
)

// InitLogger sets the package-wide LogLevel from a plain-text Options.LogLevel value ("debug",
// "info", "warn", "error").
func InitLogger(level string) error {
	parsed := LoggerLevel(level)
	if _, ok := levelRank[parsed]; !ok {
		return errors.Errorf("novatheus: unsupported log level %q", level)
	}
	LogLevel = parsed
	return nil
}

func acceptLogLevel(currentLevel, targetLevel LoggerLevel) bool {
	currentRank, ok := levelRank[currentLevel]
	if !ok {
		_ = loggerError.Output(2, fmt.Sprintf("novatheus: log level %q not set to debug/info/warn/error; dropping message", currentLevel))
		return false
	}
	return levelRank[targetLevel] >= currentRank
}
