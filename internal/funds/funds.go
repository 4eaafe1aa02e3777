package funds

import (
	"github.com/shopspring/decimal"
)

// Split is the resolved funding breakdown for one sale amount. Balance is
// always consumed before credit.
type Split struct {
	Fundable        bool
	FromBalance     decimal.Decimal
	FromCredit      decimal.Decimal
	AvailableCredit decimal.Decimal
}

// Validate resolves how a sale amount would be funded from the retailer's
// balance and remaining credit. Both the pre-flight check and the sale
// transaction call this same function so the two can never disagree.
func Validate(balance, creditLimit, creditUsed, amount decimal.Decimal) Split {
	availableCredit := creditLimit.Sub(creditUsed)
	if availableCredit.IsNegative() {
		availableCredit = decimal.Zero
	}

	split := Split{
		FromBalance:     decimal.Zero,
		FromCredit:      decimal.Zero,
		AvailableCredit: availableCredit,
	}

	if !amount.IsPositive() {
		return split
	}
	if amount.GreaterThan(balance.Add(availableCredit)) {
		return split
	}

	split.Fundable = true
	if amount.LessThanOrEqual(balance) {
		split.FromBalance = amount
		return split
	}
	split.FromBalance = balance
	split.FromCredit = amount.Sub(balance)
	return split
}
