package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// Reconciliation compares a wallet's stored balance with its journal.
type Reconciliation struct {
	WalletNumber   int64           `json:"walletNumber"`
	Balance        decimal.Decimal `json:"balance"`
	JournalBalance decimal.Decimal `json:"journalBalance"`
	Difference     decimal.Decimal `json:"difference"`
	Entries        int             `json:"entries"`
	Consistent     bool            `json:"consistent"`
}

// Reconcile replays the wallet's journal and checks it against the balance.
func (s *Service) Reconcile(ctx context.Context, walletNumber int64) (*Reconciliation, error) {
	w, err := s.store.FindWalletByNumber(ctx, walletNumber)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("Wallet number not found")
	}
	if err != nil {
		return nil, s.fail("reconcile", logrus.Fields{"wallet_number": walletNumber}, err, "Reconciliation failed")
	}
	txs, err := s.store.ListTransactionsByWallet(ctx, w.ID)
	if err != nil {
		return nil, s.fail("reconcile", logrus.Fields{"wallet_number": walletNumber}, err, "Reconciliation failed")
	}
	journal := decimal.Zero
	for _, t := range txs {
		if t.TransactionType == domain.TypeTransferOut {
			journal = journal.Sub(t.Amount)
		} else {
			journal = journal.Add(t.Amount)
		}
	}
	rec := &Reconciliation{
		WalletNumber:   walletNumber,
		Balance:        w.Balance,
		JournalBalance: journal,
		Difference:     w.Balance.Sub(journal),
		Entries:        len(txs),
		Consistent:     w.Balance.Equal(journal),
	}
	if !rec.Consistent {
		logrus.WithFields(logrus.Fields{
			"wallet_number": walletNumber,
			"balance":       w.Balance.String(),
			"journal":       journal.String(),
		}).Warn("Wallet balance does not match journal")
	}
	return rec, nil
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
}

// ListUsers pages through all users with their wallets.
func (s *Service) ListUsers(ctx context.Context, offset, limit int) (*UserPage, error) {
	users, total, err := s.store.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, s.fail("list_users", nil, err, "Failed to fetch users")
	}
	return &UserPage{Users: users, Total: total}, nil
}

// TransactionPage is one page of the admin journal listing.
type TransactionPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
}

// ListTransactions pages through the whole journal, newest first.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter, offset, limit int) (*TransactionPage, error) {
	txs, total, err := s.store.ListTransactions(ctx, f, offset, limit)
	if err != nil {
		return nil, s.fail("list_transactions", nil, err, "Failed to fetch transactions")
	}
	return &TransactionPage{Transactions: txs, Total: total}, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == domain.RoleAdmin, nil
}
