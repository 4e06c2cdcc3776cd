package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// TopUpInput is a request to fund the user's own wallet. A nil Amount means
// the field was not supplied.
type TopUpInput struct {
	Amount        *decimal.Decimal
	PaymentMethod string
	Pin           string
	Description   string
}

// TopUpResult reports a committed top-up.
type TopUpResult struct {
	Result
	WalletNumber    int64           `json:"walletNumber"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	PaymentMethod   string          `json:"paymentMethod"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
}

// TopUp credits the user's wallet from an external payment method.
func (s *Service) TopUp(ctx context.Context, userID uint, in TopUpInput) (*TopUpResult, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("topup", logrus.Fields{"user_id": userID}, err, "Top up failed")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	switch {
	case in.Pin == "":
		return nil, validation("Input pin is required")
	case !s.secrets.Compare(acc.user.Pin, in.Pin):
		return nil, validation("Invalid PIN")
	case method == "":
		return nil, validation("Payment method is required")
	case in.Amount == nil:
		return nil, validation("Top up amount is required")
	case !in.Amount.IsPositive():
		return nil, validation("Top up amount must be greater than zero")
	case !fitsScale(*in.Amount):
		return nil, validation(scaleMessage)
	case in.Amount.LessThan(s.cfg.MinimumTopUp):
		return nil, validation("Top-up amount must be at least " + s.cfg.MinimumTopUp.String())
	}
	amount := *in.Amount

	var res *TopUpResult
	err = s.inTx(ctx, "topup", func(tx Store) error {
		wallets, err := tx.LockWallets(ctx, acc.wallet.WalletNumber)
		if err != nil {
			return err
		}
		w, ok := wallets[acc.wallet.WalletNumber]
		if !ok {
			return notFound("Wallet not found")
		}
		now := s.clock()
		w.Balance = w.Balance.Add(amount)
		w.UpdatedAt = now
		if err := tx.UpdateWalletBalance(ctx, w); err != nil {
			return err
		}
		t := domain.Transaction{
			WalletID:         w.ID,
			TransactionType:  domain.TypeTopUp,
			Amount:           amount,
			FromWalletNumber: w.WalletNumber,
			ToWalletNumber:   w.WalletNumber,
			TransactionDate:  now,
			Description:      in.Description,
			PaymentMethod:    method,
		}
		if err := tx.CreateTransaction(ctx, &t); err != nil {
			return err
		}
		res = &TopUpResult{
			Result:          success("Top Up Success"),
			WalletNumber:    w.WalletNumber,
			Amount:          amount,
			Balance:         w.Balance,
			PaymentMethod:   method,
			Description:     in.Description,
			TransactionDate: now,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("topup", logrus.Fields{
			"user_id":       userID,
			"wallet_number": acc.wallet.WalletNumber,
			"amount":        amount.String(),
		}, err, "Top up failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"wallet_number":  res.WalletNumber,
		"amount":         amount.String(),
		"payment_method": method,
		"type":           "topup",
		"timestamp":      res.TransactionDate.Format(time.RFC3339),
	}).Info("Top up transaction")
	s.publish(ctx, Event{
		Type:         EventTopUpCompleted,
		WalletNumber: res.WalletNumber,
		Amount:       amount,
		OccurredAt:   res.TransactionDate,
	})
	return res, nil
}
