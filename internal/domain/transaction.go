package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
)

// TransactionType is the closed set of journal entry kinds
type TransactionType string

const (
	TypeTopUp       TransactionType = "Top Up"
	TypeTransferIn  TransactionType = "Transfer In"
	TypeTransferOut TransactionType = "Transfer Out"
)

// ParseTransactionType matches a type name case-insensitively
func ParseTransactionType(s string) (TransactionType, bool) {
	for _, t := range []TransactionType{TypeTopUp, TypeTransferIn, TypeTransferOut} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// AmountScale is the number of decimal places stored for money columns
const AmountScale = 2

// TransferPaymentMethod is recorded on both legs of an internal transfer
const TransferPaymentMethod = "Vuluz"

// Transaction Model. Rows are written once and never updated.
type Transaction struct {
	ID               uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	WalletID         uint            `gorm:"index;not null" json:"walletId"`            // Owning wallet
	TransactionType  TransactionType `gorm:"size:20;not null" json:"transactionType"`   // Top Up, Transfer In or Transfer Out
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"` // Always positive
	FromWalletNumber int64           `gorm:"index" json:"fromWalletNumber"`             // Source wallet number
	ToWalletNumber   int64           `gorm:"index" json:"toWalletNumber"`               // Destination wallet number
	TransactionDate  time.Time       `gorm:"index;not null" json:"transactionDate"`     // Commit time of the operation
	Description      string          `gorm:"size:255" json:"description"`               // Free text notes
	PaymentMethod    string          `gorm:"size:50" json:"paymentMethod"`              // Funding source label
}
