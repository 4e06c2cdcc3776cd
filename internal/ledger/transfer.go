package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// Result statuses
const (
	StatusSuccess = "Success"
	StatusError   = "Error"
)

// Result is the outcome header of a ledger mutation.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func success(msg string) Result { return Result{Status: StatusSuccess, Message: msg} }

var scaleMessage = fmt.Sprintf("Amount supports at most %d decimal places", domain.AmountScale)

// fitsScale reports whether d is storable without rounding.
func fitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(domain.AmountScale))
}

// TransferInput is a request to move funds to another wallet. A zero
// ToWalletNumber and a nil Amount mean the field was not supplied.
type TransferInput struct {
	ToWalletNumber int64
	Amount         *decimal.Decimal
	Pin            string
	Notes          string
}

// TransferResult reports a committed transfer.
type TransferResult struct {
	Result
	FromWalletNumber int64           `json:"fromWalletNumber"`
	ToWalletNumber   int64           `json:"toWalletNumber"`
	RecipientName    string          `json:"recipientName"`
	Amount           decimal.Decimal `json:"amount"`
	Balance          decimal.Decimal `json:"balance"`
	Notes            string          `json:"notes,omitempty"`
	TransactionDate  time.Time       `json:"transactionDate"`
	RecipientUserID  uint            `json:"-"`
}

// Transfer moves an amount from the user's wallet to another wallet. Both
// balances and both journal rows are written in one transactional scope, or
// none of them are.
func (s *Service) Transfer(ctx context.Context, userID uint, in TransferInput) (*TransferResult, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("transfer", logrus.Fields{"user_id": userID}, err, "Transfer failed")
	}
	switch {
	case in.Pin == "":
		return nil, validation("Input your pin")
	case !s.secrets.Compare(acc.user.Pin, in.Pin):
		return nil, validation("Invalid PIN")
	case in.ToWalletNumber == 0:
		return nil, validation("Input wallet number")
	case in.Amount == nil:
		return nil, validation("Transfer amount is required")
	case !in.Amount.IsPositive():
		return nil, validation("Transfer amount must be greater than zero")
	case !fitsScale(*in.Amount):
		return nil, validation(scaleMessage)
	case in.ToWalletNumber == acc.wallet.WalletNumber:
		return nil, validation("You cant transfer to yourself")
	}
	amount := *in.Amount

	var res *TransferResult
	err = s.inTx(ctx, "transfer", func(tx Store) error {
		wallets, err := tx.LockWallets(ctx, acc.wallet.WalletNumber, in.ToWalletNumber)
		if err != nil {
			return err
		}
		src, ok := wallets[acc.wallet.WalletNumber]
		if !ok {
			return notFound("Wallet not found")
		}
		dst, ok := wallets[in.ToWalletNumber]
		if !ok {
			return notFound("Receiver wallet number is not found")
		}
		if src.Balance.LessThan(amount) {
			return validation("Balance is not enough")
		}

		now := s.clock()
		src.Balance = src.Balance.Sub(amount)
		src.UpdatedAt = now
		dst.Balance = dst.Balance.Add(amount)
		dst.UpdatedAt = now
		if err := tx.UpdateWalletBalance(ctx, src); err != nil {
			return err
		}
		if err := tx.UpdateWalletBalance(ctx, dst); err != nil {
			return err
		}

		out := domain.Transaction{
			WalletID:         src.ID,
			TransactionType:  domain.TypeTransferOut,
			Amount:           amount,
			FromWalletNumber: src.WalletNumber,
			ToWalletNumber:   dst.WalletNumber,
			TransactionDate:  now,
			Description:      in.Notes,
			PaymentMethod:    domain.TransferPaymentMethod,
		}
		incoming := out
		incoming.WalletID = dst.ID
		incoming.TransactionType = domain.TypeTransferIn
		if err := tx.CreateTransaction(ctx, &out); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &incoming); err != nil {
			return err
		}

		var recipient string
		if u, err := tx.FindUserByID(ctx, dst.UserID); err == nil {
			recipient = u.FullName
		}
		res = &TransferResult{
			Result:           success("Transfer Success"),
			FromWalletNumber: src.WalletNumber,
			ToWalletNumber:   dst.WalletNumber,
			RecipientName:    recipient,
			Amount:           amount,
			Balance:          src.Balance,
			Notes:            in.Notes,
			TransactionDate:  now,
			RecipientUserID:  dst.UserID,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("transfer", logrus.Fields{
			"user_id":     userID,
			"from_wallet": acc.wallet.WalletNumber,
			"to_wallet":   in.ToWalletNumber,
			"amount":      amount.String(),
		}, err, "Transfer failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"from_wallet": res.FromWalletNumber,
		"to_wallet":   res.ToWalletNumber,
		"amount":      amount.String(),
		"type":        "transfer",
		"timestamp":   res.TransactionDate.Format(time.RFC3339),
	}).Info("Transfer transaction")
	s.publish(ctx, Event{
		Type:               EventTransferCompleted,
		WalletNumber:       res.FromWalletNumber,
		TargetWalletNumber: res.ToWalletNumber,
		Amount:             amount,
		OccurredAt:         res.TransactionDate,
	})
	return res, nil
}
