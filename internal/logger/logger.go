// Package logger is the process-wide structured log. Output goes to a
// rotated file under the config directory; --debug mirrors it to stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/nextstep/internal/constants"
)

// Logger is nil until Init; every helper below is a no-op until then.
var Logger *log.Logger

var logPath string

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr receives the debug mirror. Defaults to os.Stderr.
	Stderr io.Writer
}

// Init opens <ConfigDir>/logs/nextstep.log and installs the global logger.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	path := filepath.Join(dir, constants.AppName+".log")

	var out io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
		mirror := cfg.Stderr
		if mirror == nil {
			mirror = os.Stderr
		}
		out = io.MultiWriter(mirror, out)
	}

	Logger = log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Level:           level,
		Prefix:          constants.AppName,
	})
	logPath = path
	return nil
}

// Path is the active log file, or "" before Init.
func Path() string {
	if Logger == nil {
		return ""
	}
	return logPath
}

func at(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Helper()
	Logger.Log(level, msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { at(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...interface{}) { at(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...interface{}) { at(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...interface{}) { at(log.ErrorLevel, msg, keyvals) }
