package enums

import "fmt"

// VoucherCategory identifies the product family a voucher type belongs to.
type VoucherCategory string

const (
	VoucherCategoryAirtime VoucherCategory = "airtime"
	VoucherCategoryData    VoucherCategory = "data"
	VoucherCategoryOTT     VoucherCategory = "ott"
	VoucherCategoryBillPay VoucherCategory = "bill_payment"
)

var validVoucherCategories = []VoucherCategory{
	VoucherCategoryAirtime,
	VoucherCategoryData,
	VoucherCategoryOTT,
	VoucherCategoryBillPay,
}

// String implements fmt.Stringer.
func (v VoucherCategory) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoucherCategory.
func (v VoucherCategory) IsValid() bool {
	for _, candidate := range validVoucherCategories {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherCategory converts raw input into a VoucherCategory.
func ParseVoucherCategory(value string) (VoucherCategory, error) {
	for _, candidate := range validVoucherCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher category %q", value)
}
