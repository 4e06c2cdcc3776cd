package ledger

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"wallet_ledger/internal/domain"
)

// MemoryStore is an in-process Store. Transactional scopes are serialized
// by a single mutex and rolled back from a snapshot on error.
type MemoryStore struct {
	core *memCore
	held bool // inside WithinTx; core.mu is already locked
}

type memCore struct {
	mu   sync.Mutex
	data memData
}

type memData struct {
	users     map[uint]domain.User
	wallets   map[uint]domain.Wallet
	txs       []domain.Transaction
	favorites map[uint]domain.Favorite
	nextID    uint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{core: &memCore{data: memData{
		users:     map[uint]domain.User{},
		wallets:   map[uint]domain.Wallet{},
		favorites: map[uint]domain.Favorite{},
	}}}
}

func (d memData) clone() memData {
	c := memData{
		users:     make(map[uint]domain.User, len(d.users)),
		wallets:   make(map[uint]domain.Wallet, len(d.wallets)),
		txs:       slices.Clone(d.txs),
		favorites: make(map[uint]domain.Favorite, len(d.favorites)),
		nextID:    d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	for k, v := range d.favorites {
		c.favorites[k] = v
	}
	return c
}

func (s *MemoryStore) acquire() func() {
	if s.held {
		return func() {}
	}
	s.core.mu.Lock()
	return s.core.mu.Unlock
}

func (s *MemoryStore) id() uint {
	s.core.data.nextID++
	return s.core.data.nextID
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.held {
		return fn(s)
	}
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	snapshot := s.core.data.clone()
	if err := fn(&MemoryStore{core: s.core, held: true}); err != nil {
		s.core.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	defer s.acquire()()
	for _, existing := range s.core.data.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateKey
		}
	}
	now := time.Now()
	u.ID = s.id()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.Wallet = nil
	s.core.data.users[u.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *domain.User) error {
	defer s.acquire()()
	if _, ok := s.core.data.users[u.ID]; !ok {
		return ErrRecordNotFound
	}
	u.UpdatedAt = time.Now()
	stored := *u
	stored.Wallet = nil
	s.core.data.users[u.ID] = stored
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id uint) (*domain.User, error) {
	defer s.acquire()()
	u, ok := s.core.data.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	defer s.acquire()()
	for _, u := range s.core.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) FindUserByWalletNumber(_ context.Context, number int64) (*domain.User, error) {
	defer s.acquire()()
	for _, w := range s.core.data.wallets {
		if w.WalletNumber == number {
			if u, ok := s.core.data.users[w.UserID]; ok {
				return &u, nil
			}
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	defer s.acquire()()
	users := make([]domain.User, 0, len(s.core.data.users))
	for _, u := range s.core.data.users {
		for _, w := range s.core.data.wallets {
			if w.UserID == u.ID {
				u.Wallet = &w
			}
		}
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return page(users, offset, limit), int64(len(users)), nil
}

func (s *MemoryStore) CreateWallet(_ context.Context, w *domain.Wallet) error {
	defer s.acquire()()
	for _, existing := range s.core.data.wallets {
		if existing.WalletNumber == w.WalletNumber || existing.UserID == w.UserID {
			return ErrDuplicateKey
		}
	}
	now := time.Now()
	w.ID = s.id()
	w.CreatedAt, w.UpdatedAt = now, now
	s.core.data.wallets[w.ID] = *w
	return nil
}

func (s *MemoryStore) FindWalletByUserID(_ context.Context, userID uint) (*domain.Wallet, error) {
	defer s.acquire()()
	for _, w := range s.core.data.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) FindWalletByNumber(_ context.Context, number int64) (*domain.Wallet, error) {
	defer s.acquire()()
	if w, ok := s.walletByNumber(number); ok {
		return &w, nil
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) walletByNumber(number int64) (domain.Wallet, bool) {
	for _, w := range s.core.data.wallets {
		if w.WalletNumber == number {
			return w, true
		}
	}
	return domain.Wallet{}, false
}

func (s *MemoryStore) WalletNumberExists(_ context.Context, number int64) (bool, error) {
	defer s.acquire()()
	_, ok := s.walletByNumber(number)
	return ok, nil
}

func (s *MemoryStore) LockWallets(_ context.Context, numbers ...int64) (map[int64]*domain.Wallet, error) {
	defer s.acquire()()
	out := make(map[int64]*domain.Wallet, len(numbers))
	for _, n := range numbers {
		if w, ok := s.walletByNumber(n); ok {
			out[n] = &w
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateWalletBalance(_ context.Context, w *domain.Wallet) error {
	defer s.acquire()()
	stored, ok := s.core.data.wallets[w.ID]
	if !ok {
		return ErrRecordNotFound
	}
	stored.Balance = w.Balance
	stored.UpdatedAt = w.UpdatedAt
	s.core.data.wallets[w.ID] = stored
	return nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	defer s.acquire()()
	t.ID = s.id()
	s.core.data.txs = append(s.core.data.txs, *t)
	return nil
}

func (s *MemoryStore) ListTransactionsByWallet(_ context.Context, walletID uint) ([]domain.Transaction, error) {
	defer s.acquire()()
	var out []domain.Transaction
	for _, t := range s.core.data.txs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTransactionsBetween(_ context.Context, walletID uint, from, to time.Time) ([]domain.Transaction, error) {
	defer s.acquire()()
	var out []domain.Transaction
	for _, t := range s.core.data.txs {
		if t.WalletID == walletID && !t.TransactionDate.Before(from) && t.TransactionDate.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, f TransactionFilter, offset, limit int) ([]domain.Transaction, int64, error) {
	defer s.acquire()()
	var out []domain.Transaction
	for i := len(s.core.data.txs) - 1; i >= 0; i-- {
		t := s.core.data.txs[i]
		if f.WalletNumber != 0 && t.FromWalletNumber != f.WalletNumber && t.ToWalletNumber != f.WalletNumber {
			continue
		}
		if f.Type != "" && t.TransactionType != f.Type {
			continue
		}
		if !f.From.IsZero() && t.TransactionDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.TransactionDate.Before(f.To) {
			continue
		}
		out = append(out, t)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (s *MemoryStore) CreateFavorite(_ context.Context, f *domain.Favorite) error {
	defer s.acquire()()
	for _, existing := range s.core.data.favorites {
		if existing.UserID == f.UserID && existing.WalletNumber == f.WalletNumber {
			return ErrDuplicateKey
		}
	}
	f.ID = s.id()
	s.core.data.favorites[f.ID] = *f
	return nil
}

func (s *MemoryStore) FindFavorite(_ context.Context, userID uint, number int64) (*domain.Favorite, error) {
	defer s.acquire()()
	for _, f := range s.core.data.favorites {
		if f.UserID == userID && f.WalletNumber == number {
			return &f, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryStore) ListFavorites(_ context.Context, userID uint) ([]domain.Favorite, error) {
	defer s.acquire()()
	var out []domain.Favorite
	for _, f := range s.core.data.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b domain.Favorite) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemoryStore) DeleteFavorite(_ context.Context, id uint) error {
	defer s.acquire()()
	if _, ok := s.core.data.favorites[id]; !ok {
		return ErrRecordNotFound
	}
	delete(s.core.data.favorites, id)
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
