package fdv2proto

// Selector represents a particular snapshot of data, identified by a state string and version. It is
// a value type: the zero value represents the lack of a selector (see NoSelector).
type Selector struct {
	state   string
	version int
}

// NoSelector returns the zero-value Selector, representing the lack of one. It is here only for
// readability at call sites.
func NoSelector() Selector {
	return Selector{}
}

// NewSelector creates a new Selector from a state string and version.
func NewSelector(state string, version int) Selector {
	return Selector{state: state, version: version}
}

// IsSet returns true if the Selector identifies an actual snapshot of data.
func (s Selector) IsSet() bool {
	return s.state != ""
}

// State returns the state string of the Selector.
func (s Selector) State() string {
	return s.state
}

// Version returns the version of the Selector.
func (s Selector) Version() int {
	return s.version
}
