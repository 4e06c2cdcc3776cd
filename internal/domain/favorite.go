package domain

// Favorite Model, a saved transfer recipient
type Favorite struct {
	ID           uint  `gorm:"primaryKey" json:"id"`                                              // Primary key
	UserID       uint  `gorm:"uniqueIndex:idx_favorite_user_wallet;not null" json:"userId"`       // Owner of the favorite
	WalletNumber int64 `gorm:"uniqueIndex:idx_favorite_user_wallet;not null" json:"walletNumber"` // Saved recipient wallet number
}
