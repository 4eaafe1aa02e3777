package enums

// TerminalStatus tracks the lifecycle of a cashier terminal.
type TerminalStatus string

const (
	TerminalStatusActive   TerminalStatus = "active"
	TerminalStatusDisabled TerminalStatus = "disabled"
)

var validTerminalStatuses = []TerminalStatus{
	TerminalStatusActive,
	TerminalStatusDisabled,
}

// String implements fmt.Stringer.
func (t TerminalStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TerminalStatus.
func (t TerminalStatus) IsValid() bool {
	for _, candidate := range validTerminalStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}
