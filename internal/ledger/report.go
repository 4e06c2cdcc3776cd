package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// Cashflow periods
const (
	PeriodDaily     = "daily"
	PeriodWeekly    = "weekly"
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
)

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Summary aggregates a wallet's journal.
type Summary struct {
	TotalIncome          decimal.Decimal `json:"totalIncome"`
	TotalExpense         decimal.Decimal `json:"totalExpense"`
	NetIncome            decimal.Decimal `json:"netIncome"`
	CurrentBalance       decimal.Decimal `json:"currentBalance"`
	BalanceChange        decimal.Decimal `json:"balanceChange"`
	PreviousMonthBalance decimal.Decimal `json:"previousMonthBalance"`
}

// CashflowRow is one bucket of a cashflow report.
type CashflowRow struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// classify splits a row into its income and expense contribution for the
// wallet numbered own.
func classify(t domain.Transaction, own int64) (income, expense decimal.Decimal) {
	switch {
	case t.TransactionType == domain.TypeTopUp:
		return t.Amount, decimal.Zero
	case t.TransactionType == domain.TypeTransferIn && t.ToWalletNumber == own:
		return t.Amount, decimal.Zero
	case t.TransactionType == domain.TypeTransferOut && t.FromWalletNumber == own:
		return decimal.Zero, t.Amount
	}
	return decimal.Zero, decimal.Zero
}

// Summary totals the user's journal and compares against last month.
func (s *Service) Summary(ctx context.Context, userID uint) (*Summary, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("summary", logrus.Fields{"user_id": userID}, err, "Failed to retrieve summary")
	}
	txs, err := s.store.ListTransactionsByWallet(ctx, acc.wallet.ID)
	if err != nil {
		return nil, s.fail("summary", logrus.Fields{"user_id": userID}, err, "Failed to retrieve summary")
	}

	now := s.clock()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.cfg.Location)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	sum := &Summary{
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		BalanceChange:  decimal.Zero,
		CurrentBalance: acc.wallet.Balance,
	}
	for _, t := range txs {
		in, out := classify(t, acc.wallet.WalletNumber)
		sum.TotalIncome = sum.TotalIncome.Add(in)
		sum.TotalExpense = sum.TotalExpense.Add(out)
		if !t.TransactionDate.Before(lastMonth) && t.TransactionDate.Before(thisMonth) {
			sum.BalanceChange = sum.BalanceChange.Add(in).Sub(out)
		}
	}
	sum.NetIncome = sum.TotalIncome.Sub(sum.TotalExpense)
	sum.PreviousMonthBalance = sum.CurrentBalance.Sub(sum.BalanceChange)
	return sum, nil
}

// Cashflow buckets the user's income and expense by period.
func (s *Service) Cashflow(ctx context.Context, userID uint, period string) ([]CashflowRow, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	var label func(time.Time) string
	switch period {
	case PeriodDaily:
		label = func(t time.Time) string { return t.Weekday().String() }
	case PeriodWeekly:
		label = func(t time.Time) string {
			_, week := t.ISOWeek()
			return fmt.Sprintf("Week %d", week)
		}
	case PeriodMonthly:
		label = func(t time.Time) string { return t.Month().String()[:3] }
	case PeriodQuarterly:
		label = func(t time.Time) string { return fmt.Sprintf("Q%d", (int(t.Month())-1)/3+1) }
	default:
		return nil, validation("Invalid period. Use 'daily', 'weekly', 'monthly', or 'quarterly'.")
	}

	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("cashflow", logrus.Fields{"user_id": userID}, err, "Failed to retrieve cashflow")
	}
	txs, err := s.store.ListTransactionsByWallet(ctx, acc.wallet.ID)
	if err != nil {
		return nil, s.fail("cashflow", logrus.Fields{"user_id": userID}, err, "Failed to retrieve cashflow")
	}

	buckets := map[string]*CashflowRow{}
	bucket := func(key string) *CashflowRow {
		b, ok := buckets[key]
		if !ok {
			b = &CashflowRow{Label: key, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[key] = b
		}
		return b
	}

	var weekStart, weekEnd time.Time
	if period == PeriodDaily {
		now := s.clock()
		offset := (int(now.Weekday()) + 6) % 7
		weekStart = time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, s.cfg.Location)
		weekEnd = weekStart.AddDate(0, 0, 7)
		for _, d := range weekdayOrder {
			bucket(d.String())
		}
	}

	for _, t := range txs {
		at := t.TransactionDate.In(s.cfg.Location)
		if period == PeriodDaily && (at.Before(weekStart) || !at.Before(weekEnd)) {
			continue
		}
		in, out := classify(t, acc.wallet.WalletNumber)
		b := bucket(label(at))
		b.Income = b.Income.Add(in)
		b.Expense = b.Expense.Add(out)
	}

	rows := make([]CashflowRow, 0, len(buckets))
	if period == PeriodDaily {
		for _, d := range weekdayOrder {
			rows = append(rows, *buckets[d.String()])
		}
	} else {
		for _, b := range buckets {
			rows = append(rows, *b)
		}
		slices.SortFunc(rows, func(a, b CashflowRow) int { return strings.Compare(a.Label, b.Label) })
	}
	for i := range rows {
		rows[i].Net = rows[i].Income.Sub(rows[i].Expense)
	}
	return rows, nil
}

// MonthlyTransactions returns the user's journal rows dated in the given
// calendar month.
func (s *Service) MonthlyTransactions(ctx context.Context, userID uint, month, year int) ([]domain.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, validation("Invalid month")
	}
	if year < 1 {
		return nil, validation("Invalid year")
	}
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("statement", logrus.Fields{"user_id": userID}, err, "Failed to retrieve statement")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.cfg.Location)
	txs, err := s.store.ListTransactionsBetween(ctx, acc.wallet.ID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, s.fail("statement", logrus.Fields{"user_id": userID}, err, "Failed to retrieve statement")
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}
