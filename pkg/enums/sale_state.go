package enums

import "fmt"

// SaleState tracks a single sale attempt. Committed and rolled back are terminal.
type SaleState string

const (
	SaleStateIdle          SaleState = "idle"
	SaleStateInTransaction SaleState = "in_transaction"
	SaleStateCommitted     SaleState = "committed"
	SaleStateRolledBack    SaleState = "rolled_back"
)

var validSaleStates = []SaleState{
	SaleStateIdle,
	SaleStateInTransaction,
	SaleStateCommitted,
	SaleStateRolledBack,
}

var saleStateTransitions = map[SaleState][]SaleState{
	SaleStateIdle:          {SaleStateInTransaction, SaleStateRolledBack},
	SaleStateInTransaction: {SaleStateCommitted, SaleStateRolledBack},
}

// String implements fmt.Stringer.
func (s SaleState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleState.
func (s SaleState) IsValid() bool {
	for _, candidate := range validSaleStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s SaleState) IsTerminal() bool {
	return s == SaleStateCommitted || s == SaleStateRolledBack
}

// CanTransitionTo reports whether next is reachable from s.
func (s SaleState) CanTransitionTo(next SaleState) bool {
	for _, candidate := range saleStateTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseSaleState converts raw input into a SaleState.
func ParseSaleState(value string) (SaleState, error) {
	for _, candidate := range validSaleStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale state %q", value)
}
