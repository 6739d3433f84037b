package diag

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogReporter forwards diagnostics to a logrus logger and counts errors.
type LogReporter struct {
	log    logrus.FieldLogger
	errors atomic.Int64
}

// NewLogReporter creates a reporter writing to log. A nil log uses the
// logrus standard logger.
func NewLogReporter(log logrus.FieldLogger) *LogReporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogReporter{log: log}
}

// Report implements Reporter.
func (r *LogReporter) Report(d Diagnostic) {
	entry := r.log.WithField("phase", d.Phase)
	switch d.Severity {
	case SeverityError:
		r.errors.Add(1)
		entry.Error(d.Message)
	case SeverityWarning:
		entry.Warn(d.Message)
	default:
		entry.Info(d.Message)
	}
}

// ErrorCount returns the number of ERROR diagnostics reported so far.
func (r *LogReporter) ErrorCount() int {
	return int(r.errors.Load())
}
