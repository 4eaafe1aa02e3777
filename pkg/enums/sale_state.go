package enums

import "fmt"

// SaleState is the client-visible lifecycle state of an in-progress sale session.
type SaleState string

const (
	SaleStateIdle             SaleState = "idle"
	SaleStateCategorySelected SaleState = "category_selected"
	SaleStateValueSelected    SaleState = "value_selected"
	SaleStateConfirmPending   SaleState = "confirm_pending"
	SaleStateSubmitting       SaleState = "submitting"
	SaleStateSuccess          SaleState = "success"
	SaleStateFailed           SaleState = "failed"
)

var validSaleStates = []SaleState{
	SaleStateIdle,
	SaleStateCategorySelected,
	SaleStateValueSelected,
	SaleStateConfirmPending,
	SaleStateSubmitting,
	SaleStateSuccess,
	SaleStateFailed,
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

// IsTerminal reports whether the state accepts no further submission.
func (s SaleState) IsTerminal() bool {
	return s == SaleStateSuccess
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
