package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/warden/backend/internal/util"
)

var _log = logrus.New()

// Init configures the shared logger. Debug mode switches to human readable
// text output; otherwise entries are emitted as JSON.
func Init(debug bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	_log.SetOutput(out)
	if debug {
		_log.SetLevel(logrus.DebugLevel)
		_log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	_log.SetLevel(logrus.InfoLevel)
	_log.SetFormatter(&logrus.JSONFormatter{})
}

// Log returns an entry on the shared logger.
func Log() *logrus.Entry {
	return logrus.NewEntry(_log)
}

// WithFields returns an entry with the given fields attached.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}

// ForIP returns an entry tagged with a caller supplied IP address.
func ForIP(ip string) *logrus.Entry {
	return Log().WithField("ip", util.SanitizeForLog(ip))
}
