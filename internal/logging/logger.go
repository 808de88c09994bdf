package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/traininglog/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 30
)

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup configures the global logrus logger. The returned closer releases the
// log file, if one is used.
func Setup(params LoggerSetupParams) io.Closer {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stdout)
		logrus.Debugln("writing logs only to STDOUT")
		return nopCloser{}
	}

	logFile := params.LogFileName
	if !strings.HasSuffix(logFile, ".log") {
		logFile += ".log"
	}
	if err := pkg.EnsureDir(filepath.Dir(logFile)); err != nil {
		logrus.Errorf("logs dir for [%s]: %s", logFile, err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		LocalTime:  false, // UTC in backup names
		Compress:   true,
	}

	if params.LogToStdout {
		logrus.SetOutput(pkg.NewFanOutWriter(os.Stdout, fileLogger))
		logrus.Debugf("writing logs to [%s] and STDOUT", logFile)
	} else {
		logrus.SetOutput(fileLogger)
	}

	return fileLogger
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("sentry set up")
}

// GetLevel parses a level name, falling back to info for unknown names.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
