package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Receipt is the printable result of a completed sale. Assembly is a pure
// post-processing step; nothing here touches the database.
type Receipt struct {
	SaleID             uuid.UUID             `json:"sale_id"`
	ReferenceNumber    string                `json:"reference_number"`
	VoucherTypeName    string                `json:"voucher_type_name"`
	Category           enums.VoucherCategory `json:"category"`
	NetworkProvider    string                `json:"network_provider"`
	Amount             decimal.Decimal       `json:"amount"`
	Pin                string                `json:"pin"`
	SerialNumber       string                `json:"serial_number,omitempty"`
	Instructions       string                `json:"instructions,omitempty"`
	HelpText           string                `json:"help_text,omitempty"`
	FromBalance        decimal.Decimal       `json:"from_balance"`
	FromCredit         decimal.Decimal       `json:"from_credit"`
	RetailerCommission decimal.Decimal       `json:"retailer_commission"`
	SoldAt             time.Time             `json:"sold_at"`
}

// BuildReceipt assembles the customer-facing receipt from the committed sale
// row, its voucher type, and the pin that was sold.
func BuildReceipt(sale *models.Sale, voucherType *models.VoucherType, pin, serialNumber string) Receipt {
	receipt := Receipt{
		SaleID:             sale.ID,
		ReferenceNumber:    sale.ReferenceNumber,
		Amount:             sale.Amount,
		Pin:                pin,
		SerialNumber:       serialNumber,
		FromBalance:        sale.FromBalance,
		FromCredit:         sale.FromCredit,
		RetailerCommission: sale.RetailerCommissionAmount,
		SoldAt:             sale.CreatedAt,
	}
	if voucherType == nil {
		return receipt
	}

	receipt.VoucherTypeName = voucherType.Name
	receipt.Category = voucherType.Category
	receipt.NetworkProvider = voucherType.NetworkProvider
	if voucherType.Instructions != nil && *voucherType.Instructions != "" {
		receipt.Instructions = *voucherType.Instructions
	} else {
		receipt.Instructions = defaultInstructions(voucherType)
	}
	if voucherType.HelpText != nil {
		receipt.HelpText = *voucherType.HelpText
	}
	return receipt
}

// defaultInstructions falls back to the network's standard redemption string
// when the catalog entry carries none.
func defaultInstructions(voucherType *models.VoucherType) string {
	switch voucherType.Category {
	case enums.VoucherCategoryAirtime:
		return fmt.Sprintf("Dial *136*(voucher number)# to redeem your %s airtime.", voucherType.NetworkProvider)
	case enums.VoucherCategoryData:
		return fmt.Sprintf("Dial *136*(voucher number)# to load your %s data bundle.", voucherType.NetworkProvider)
	case enums.VoucherCategoryOTT:
		return "Enter the voucher pin at checkout on the provider's website or app."
	case enums.VoucherCategoryBillPay:
		return "Keep this receipt as proof of payment."
	default:
		return ""
	}
}
