package ledger

import (
	"context"
	"time"

	"wallet_ledger/internal/domain"
)

// Store is the persistence contract of the ledger. Lookups that find
// nothing return ErrRecordNotFound; unique constraint violations return
// ErrDuplicateKey.
type Store interface {
	// WithinTx runs fn in one all-or-nothing scope. The Store handed to fn
	// is bound to that scope; any error returned by fn rolls back every
	// write made through it.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	FindUserByID(ctx context.Context, id uint) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByWalletNumber(ctx context.Context, number int64) (*domain.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]domain.User, int64, error)

	CreateWallet(ctx context.Context, w *domain.Wallet) error
	FindWalletByUserID(ctx context.Context, userID uint) (*domain.Wallet, error)
	FindWalletByNumber(ctx context.Context, number int64) (*domain.Wallet, error)
	WalletNumberExists(ctx context.Context, number int64) (bool, error)
	// LockWallets loads the given wallets for update, in ascending wallet
	// number order. Numbers with no wallet are absent from the result.
	LockWallets(ctx context.Context, numbers ...int64) (map[int64]*domain.Wallet, error)
	UpdateWalletBalance(ctx context.Context, w *domain.Wallet) error

	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	ListTransactionsByWallet(ctx context.Context, walletID uint) ([]domain.Transaction, error)
	// ListTransactionsBetween returns the wallet's rows dated in [from, to).
	ListTransactionsBetween(ctx context.Context, walletID uint, from, to time.Time) ([]domain.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error)

	CreateFavorite(ctx context.Context, f *domain.Favorite) error
	FindFavorite(ctx context.Context, userID uint, number int64) (*domain.Favorite, error)
	ListFavorites(ctx context.Context, userID uint) ([]domain.Favorite, error)
	DeleteFavorite(ctx context.Context, id uint) error
}

// TransactionFilter narrows the admin journal listing. Zero fields match all.
type TransactionFilter struct {
	WalletNumber int64
	Type         domain.TransactionType
	From         time.Time
	To           time.Time
}
