package diag

import "sync"

// Collector records diagnostics in report order. Used by tests and by the
// pipeline to inspect what each phase reported.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	next        Reporter
}

// NewCollector creates a Collector. When next is non-nil every diagnostic is
// forwarded to it after being recorded.
func NewCollector(next Reporter) *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0),
		next:        next,
	}
}

// Report implements Reporter.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
	if c.next != nil {
		c.next.Report(d)
	}
}

// Diagnostics returns a copy of the recorded diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// BySeverity returns the recorded diagnostics with severity s.
func (c *Collector) BySeverity(s Severity) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any ERROR diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return len(c.BySeverity(SeverityError)) > 0
}
