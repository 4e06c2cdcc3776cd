package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

const testPin = "123456"

type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (plainHasher) Compare(hash, secret string) bool { return hash == "hashed:"+secret }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	svc    *Service
	store  *MemoryStore
	clock  *testClock
	events *recordingPublisher
}

// Wednesday 15 May 2024, 10:00 UTC
var testNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:  NewMemoryStore(),
		clock:  &testClock{t: testNow},
		events: &recordingPublisher{},
	}
	opts = append([]Option{WithClock(f.clock.Now), WithPublisher(f.events)}, opts...)
	f.svc = NewService(f.store, plainHasher{}, Config{
		Location:       time.UTC,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}, opts...)
	return f
}

func (f *fixture) open(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.svc.OpenAccount(context.Background(), NewAccount{
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password: "secret-password",
		Pin:      testPin,
		FullName: name,
		Username: strings.ToLower(strings.Fields(name)[0]),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) topUp(t *testing.T, userID uint, amount int64) {
	t.Helper()
	_, err := f.svc.TopUp(context.Background(), userID, TopUpInput{
		Amount:        amt(amount),
		PaymentMethod: "BCA",
		Pin:           testPin,
	})
	require.NoError(t, err)
}

func (f *fixture) wallet(t *testing.T, userID uint) *domain.Wallet {
	t.Helper()
	w, err := f.store.FindWalletByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func (f *fixture) journal(t *testing.T, userID uint) []domain.Transaction {
	t.Helper()
	txs, err := f.store.ListTransactionsByWallet(context.Background(), f.wallet(t, userID).ID)
	require.NoError(t, err)
	return txs
}

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func amtOf(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func requireLedgerError(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var le *Error
	require.True(t, errors.As(err, &le), "expected *ledger.Error, got %T", err)
	require.Equal(t, kind, le.Kind)
	require.Equal(t, msg, le.Message)
}

// faultyStore fails writes of one journal entry type inside transactional
// scopes, and can report retryable conflicts a fixed number of times.
type faultyStore struct {
	*MemoryStore
	failType  domain.TransactionType
	conflicts int
	calls     int
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.calls++
	if s.conflicts > 0 {
		s.conflicts--
		return ErrRetryable
	}
	return s.MemoryStore.WithinTx(ctx, func(tx Store) error {
		return fn(&faultyTx{Store: tx, failType: s.failType})
	})
}

type faultyTx struct {
	Store
	failType domain.TransactionType
}

func (tx *faultyTx) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if tx.failType != "" && t.TransactionType == tx.failType {
		return errors.New("disk full")
	}
	return tx.Store.CreateTransaction(ctx, t)
}

// serviceOver builds a Service sharing the fixture's clock and config over
// a different store.
func (f *fixture) serviceOver(store Store) *Service {
	return NewService(store, plainHasher{}, Config{
		Location:       time.UTC,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}, WithClock(f.clock.Now))
}
