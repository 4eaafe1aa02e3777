package enums

// VendorIssuanceStatus tracks what became of a voucher bought from an
// external vendor. The vendor charges the moment it answers, so every
// issuance is recorded and resolved rather than discarded.
type VendorIssuanceStatus string

const (
	// VendorIssuancePending is set as soon as the vendor answers; the funding
	// transaction has not settled yet.
	VendorIssuancePending VendorIssuanceStatus = "pending"
	// VendorIssuanceConsumed means the sale committed and owns the pin.
	VendorIssuanceConsumed VendorIssuanceStatus = "consumed"
	// VendorIssuanceOrphaned means the sale definitely failed after the
	// vendor had issued; the pin is held for reconciliation.
	VendorIssuanceOrphaned VendorIssuanceStatus = "orphaned"
)

var validVendorIssuanceStatuses = []VendorIssuanceStatus{
	VendorIssuancePending,
	VendorIssuanceConsumed,
	VendorIssuanceOrphaned,
}

// String implements fmt.Stringer.
func (v VendorIssuanceStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorIssuanceStatus.
func (v VendorIssuanceStatus) IsValid() bool {
	for _, candidate := range validVendorIssuanceStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}
