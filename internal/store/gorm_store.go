package store

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/ledger"
)

// GormStore is the SQL implementation of ledger.Store.
type GormStore struct {
	db *gorm.DB
}

var _ ledger.Store = (*GormStore)(nil)

// New wraps an open gorm connection.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}))
}

func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

func (s *GormStore) UpdateUser(ctx context.Context, u *domain.User) error {
	return translate(s.db.WithContext(ctx).Model(u).
		Select("full_name", "username", "gender", "avatar_url").
		Updates(u).Error)
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUserByWalletNumber(ctx context.Context, number int64) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).
		Joins("JOIN wallets ON wallets.user_id = users.id").
		Where("wallets.wallet_number = ?", number).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var users []domain.User
	err := paginate(s.db.WithContext(ctx).Preload("Wallet").Order("id"), offset, limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

func (s *GormStore) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	return translate(s.db.WithContext(ctx).Create(w).Error)
}

func (s *GormStore) FindWalletByUserID(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) FindWalletByNumber(ctx context.Context, number int64) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := s.db.WithContext(ctx).Where("wallet_number = ?", number).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) WalletNumberExists(ctx context.Context, number int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("wallet_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// LockWallets takes row locks one wallet at a time in ascending number
// order, so concurrent transfers over the same pair queue instead of
// deadlocking.
func (s *GormStore) LockWallets(ctx context.Context, numbers ...int64) (map[int64]*domain.Wallet, error) {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make(map[int64]*domain.Wallet, len(sorted))
	for _, n := range sorted {
		var found []domain.Wallet
		err := s.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet_number = ?", n).
			Find(&found).Error
		if err != nil {
			return nil, translate(err)
		}
		if len(found) > 0 {
			out[n] = &found[0]
		}
	}
	return out, nil
}

func (s *GormStore) UpdateWalletBalance(ctx context.Context, w *domain.Wallet) error {
	return translate(s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ?", w.ID).
		Updates(map[string]any{"balance": w.Balance, "updated_at": w.UpdatedAt}).Error)
}

func (s *GormStore) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) ListTransactionsByWallet(ctx context.Context, walletID uint) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("transaction_date, id").
		Find(&txs).Error
	return txs, translate(err)
}

func (s *GormStore) ListTransactionsBetween(ctx context.Context, walletID uint, from, to time.Time) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("wallet_id = ? AND transaction_date >= ? AND transaction_date < ?", walletID, from, to).
		Order("transaction_date, id").
		Find(&txs).Error
	return txs, translate(err)
}

func (s *GormStore) ListTransactions(ctx context.Context, f ledger.TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error) {
	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.Transaction{})
		if f.WalletNumber != 0 {
			q = q.Where("from_wallet_number = ? OR to_wallet_number = ?", f.WalletNumber, f.WalletNumber)
		}
		if f.Type != "" {
			q = q.Where("transaction_type = ?", f.Type)
		}
		if !f.From.IsZero() {
			q = q.Where("transaction_date >= ?", f.From)
		}
		if !f.To.IsZero() {
			q = q.Where("transaction_date < ?", f.To)
		}
		return q
	}
	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var txs []domain.Transaction
	if err := paginate(query().Order("id DESC"), offset, limit).Find(&txs).Error; err != nil {
		return nil, 0, translate(err)
	}
	return txs, total, nil
}

func (s *GormStore) CreateFavorite(ctx context.Context, f *domain.Favorite) error {
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

func (s *GormStore) FindFavorite(ctx context.Context, userID uint, number int64) (*domain.Favorite, error) {
	var f domain.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND wallet_number = ?", userID, number).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *GormStore) ListFavorites(ctx context.Context, userID uint) ([]domain.Favorite, error) {
	var favs []domain.Favorite
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&favs).Error
	return favs, translate(err)
}

func (s *GormStore) DeleteFavorite(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Favorite{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ledger.ErrRecordNotFound
	}
	return nil
}

func paginate(q *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
