package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
)

// Wallet number bounds (six digits)
const (
	MinWalletNumber int64 = 100000
	MaxWalletNumber int64 = 999999
)

// DefaultWalletName is given to the wallet opened at registration
const DefaultWalletName = "Main Pocket"

// Wallet Model
type Wallet struct {
	ID           uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID       uint            `gorm:"uniqueIndex;not null" json:"userId"`                   // Foreign key to User
	WalletNumber int64           `gorm:"uniqueIndex;not null" json:"walletNumber"`             // Public six digit number, never reassigned
	WalletName   string          `gorm:"size:100" json:"walletName"`                           // Wallet label
	Balance      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // Wallet balance, never negative
	CreatedAt    time.Time       `json:"createdAt"`                                            // Creation time
	UpdatedAt    time.Time       `json:"updatedAt"`                                            // Refreshed on every balance change
}
