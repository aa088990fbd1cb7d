package mitm

import "fmt"

const (
	// DefaultSignalHeader is the header the MITM proxy looks at.
	DefaultSignalHeader = "X-Security-Proxy"

	SignalRecord    = "record"
	SignalIntercept = "intercept"
)

// ModifierFunc mutates a request in place. It must be safe to run more than
// once on the same request.
type ModifierFunc func(req Request) error

// Modifier is a named request mutation. Registrations are keyed by the
// pointer, not by the name.
type Modifier struct {
	Name string
	fn   ModifierFunc
}

func NewModifier(name string, fn ModifierFunc) *Modifier {
	return &Modifier{Name: name, fn: fn}
}

// Apply runs the modifier against req.
func (m *Modifier) Apply(req Request) error {
	if m == nil || m.fn == nil {
		return fmt.Errorf("modifier %q has no function", m.String())
	}
	return m.fn(req)
}

func (m *Modifier) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.Name
}

// HeaderModifier returns a modifier that sets header to value, replacing any
// previous value.
func HeaderModifier(name, header, value string) *Modifier {
	return NewModifier(name, func(req Request) error {
		req.SetHeader(header, value)
		return nil
	})
}

// Signals holds the built-in modifiers for one signaling header.
type Signals struct {
	Header    string
	Record    *Modifier
	Intercept *Modifier
}

// NewSignals builds the record and intercept modifiers. An empty header falls
// back to DefaultSignalHeader.
func NewSignals(header string) *Signals {
	if header == "" {
		header = DefaultSignalHeader
	}
	return &Signals{
		Header:    header,
		Record:    HeaderModifier(SignalRecord, header, SignalRecord),
		Intercept: HeaderModifier(SignalIntercept, header, SignalIntercept),
	}
}

// ByName returns the built-in modifier called name.
func (s *Signals) ByName(name string) (*Modifier, bool) {
	switch name {
	case SignalRecord:
		return s.Record, true
	case SignalIntercept:
		return s.Intercept, true
	}
	return nil, false
}
