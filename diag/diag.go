// Package diag carries compiler diagnostics from the partitioning phases to
// an injected sink. Severity is the only signal backends use to decide
// whether to proceed with a partition.
package diag

import "fmt"

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	Phase    string // reporting phase, e.g. "profile" or "extract"
	Message  string
	Err      error // typed cause for ERROR diagnostics (may be nil)
}

func (d Diagnostic) String() string {
	if d.Phase == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Phase, d.Message)
}

// Reporter receives diagnostics. Implementations must be safe for concurrent
// use: backends descending from one partitioned task may report in parallel.
type Reporter interface {
	Report(d Diagnostic)
}

// Infof builds an INFO diagnostic.
func Infof(phase, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Phase: phase, Message: fmt.Sprintf(format, args...)}
}

// Warningf builds a WARNING diagnostic.
func Warningf(phase, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Phase: phase, Message: fmt.Sprintf(format, args...)}
}

// FromError builds an ERROR diagnostic carrying err.
func FromError(phase string, err error) Diagnostic {
	return Diagnostic{Severity: SeverityError, Phase: phase, Message: err.Error(), Err: err}
}

// Discard drops every diagnostic.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}
