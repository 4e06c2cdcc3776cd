package ledger

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// Sort orders accepted by History.
const (
	SortAmountAsc          = "amount_asc"
	SortAmountDesc         = "amount_desc"
	SortDateAsc            = "date_asc"
	SortDateDesc           = "date_desc"
	SortAmountAscDateDesc  = "amount_asc_date_desc"
	SortAmountDescDateAsc  = "amount_desc_date_asc"
	SortDateAscAmountAsc   = "date_asc_amount_asc"
	SortDateDescAmountDesc = "date_desc_amount_desc"
)

// unknownAccount is shown when the other side of a row cannot be resolved.
const unknownAccount = "Unknown"

// historyDateLayout is how dates are rendered for free text search.
const historyDateLayout = "2006-01-02 15:04:05"

// HistoryQuery filters and orders a wallet's journal. Zero fields are no-ops.
// From and To are inclusive calendar dates.
type HistoryQuery struct {
	Type   string
	From   *time.Time
	To     *time.Time
	Search string
	Sort   string
}

// HistoryRow is a journal entry seen from the owning wallet. Amount is
// positive for incoming rows and negative otherwise.
type HistoryRow struct {
	ID               uint                   `json:"id"`
	TransactionDate  time.Time              `json:"transactionDate"`
	TransactionType  domain.TransactionType `json:"transactionType"`
	AccountName      string                 `json:"accountName"`
	Description      string                 `json:"description"`
	Amount           decimal.Decimal        `json:"amount"`
	PaymentMethod    string                 `json:"paymentMethod"`
	FromWalletNumber int64                  `json:"fromWalletNumber"`
	ToWalletNumber   int64                  `json:"toWalletNumber"`
	Incoming         bool                   `json:"incoming"`
}

// History lists the user's journal with filters and ordering applied.
func (s *Service) History(ctx context.Context, userID uint, q HistoryQuery) ([]HistoryRow, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("history", logrus.Fields{"user_id": userID}, err, "Failed to retrieve history")
	}
	txs, err := s.store.ListTransactionsByWallet(ctx, acc.wallet.ID)
	if err != nil {
		return nil, s.fail("history", logrus.Fields{"user_id": userID}, err, "Failed to retrieve history")
	}

	own := acc.wallet.WalletNumber
	names := map[int64]string{}
	rows := make([]HistoryRow, 0, len(txs))
	for _, t := range txs {
		incoming := t.ToWalletNumber == own
		other := t.ToWalletNumber
		amount := t.Amount.Neg()
		if incoming {
			other = t.FromWalletNumber
			amount = t.Amount
		}
		name, ok := names[other]
		if !ok {
			name = unknownAccount
			if u, err := s.store.FindUserByWalletNumber(ctx, other); err == nil {
				name = u.FullName
			}
			names[other] = name
		}
		rows = append(rows, HistoryRow{
			ID:               t.ID,
			TransactionDate:  t.TransactionDate,
			TransactionType:  t.TransactionType,
			AccountName:      name,
			Description:      t.Description,
			Amount:           amount,
			PaymentMethod:    t.PaymentMethod,
			FromWalletNumber: t.FromWalletNumber,
			ToWalletNumber:   t.ToWalletNumber,
			Incoming:         incoming,
		})
	}

	rows = s.filterHistory(rows, q)
	slices.SortStableFunc(rows, historyOrder(q.Sort))
	return rows, nil
}

func (s *Service) filterHistory(rows []HistoryRow, q HistoryQuery) []HistoryRow {
	loc := s.cfg.Location
	typ := strings.TrimSpace(q.Type)
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	return slices.DeleteFunc(rows, func(r HistoryRow) bool {
		if typ != "" && !strings.EqualFold(string(r.TransactionType), typ) {
			return true
		}
		day := civilDate(r.TransactionDate, loc)
		if q.From != nil && day < civilDate(*q.From, loc) {
			return true
		}
		if q.To != nil && day > civilDate(*q.To, loc) {
			return true
		}
		if needle != "" && !matchesSearch(r, needle, loc) {
			return true
		}
		return false
	})
}

func matchesSearch(r HistoryRow, needle string, loc *time.Location) bool {
	fields := []string{
		r.AccountName,
		r.Description,
		string(r.TransactionType),
		r.Amount.String(),
		r.TransactionDate.In(loc).Format(historyDateLayout),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// civilDate maps t to yyyymmdd in loc so calendar days compare as integers.
func civilDate(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}

func historyOrder(order string) func(a, b HistoryRow) int {
	byAmount := func(a, b HistoryRow) int { return a.Amount.Cmp(b.Amount) }
	byDate := func(a, b HistoryRow) int { return a.TransactionDate.Compare(b.TransactionDate) }
	switch order {
	case SortAmountAsc:
		return byAmount
	case SortAmountDesc:
		return func(a, b HistoryRow) int { return byAmount(b, a) }
	case SortDateAsc:
		return byDate
	case SortAmountAscDateDesc:
		return func(a, b HistoryRow) int { return cmp.Or(byAmount(a, b), byDate(b, a)) }
	case SortAmountDescDateAsc:
		return func(a, b HistoryRow) int { return cmp.Or(byAmount(b, a), byDate(a, b)) }
	case SortDateAscAmountAsc:
		return func(a, b HistoryRow) int { return cmp.Or(byDate(a, b), byAmount(a, b)) }
	case SortDateDescAmountDesc:
		return func(a, b HistoryRow) int { return cmp.Or(byDate(b, a), byAmount(b, a)) }
	default:
		return func(a, b HistoryRow) int { return byDate(b, a) }
	}
}
