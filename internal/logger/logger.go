package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger
var logFile *os.File

// Init sets up console logging. The level defaults to info; setting the
// DEBUG environment variable, or ARANGO_LOG to a zerolog level name,
// overrides it.
func Init() {
	log = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
	setLevelFromEnv()
}

// InitFileOnly sends all logging to a timestamped file instead of the
// console, for TUI mode where stdout belongs to the interface.
func InitFileOnly() error {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("arango-cli_%s.log", timestamp))

	var err error
	logFile, err = os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	// JSON format for file logging, easier to parse
	log = zerolog.New(logFile).With().Timestamp().Logger()
	setLevelFromEnv()

	Info("Logger initialized in file-only mode: %s", logPath)
	return nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return fmt.Sprintf("[%s]", i)
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	return output
}

func setLevelFromEnv() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if name := os.Getenv("ARANGO_LOG"); name != "" {
		if level, err := zerolog.ParseLevel(name); err == nil {
			zerolog.SetGlobalLevel(level)
			return
		}
	}
	if _, exists := os.LookupEnv("DEBUG"); exists {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// Close closes the log file if one is open.
func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// SetOutput redirects console logging to w.
func SetOutput(w io.Writer) {
	log = zerolog.New(consoleWriter(w)).With().Timestamp().Logger()
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	log.Debug().Msgf(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Fatal logs a fatal message and exits the program
func Fatal(msg string, args ...interface{}) {
	log.Fatal().Msgf(msg, args...)
}
