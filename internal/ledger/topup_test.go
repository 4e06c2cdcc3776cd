package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

func TestTopUp_CreditsWalletAndJournals(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")

	res, err := f.svc.TopUp(context.Background(), alice.ID, TopUpInput{
		Amount:        amt(25000),
		PaymentMethod: " BCA ",
		Pin:           testPin,
		Description:   "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, "Top Up Success", res.Message)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.Balance.Equal(decimal.NewFromInt(25000)))

	w := f.wallet(t, alice.ID)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, testNow, w.UpdatedAt)

	rows := f.journal(t, alice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TypeTopUp, rows[0].TransactionType)
	assert.Equal(t, w.WalletNumber, rows[0].FromWalletNumber)
	assert.Equal(t, w.WalletNumber, rows[0].ToWalletNumber)
	assert.Equal(t, "BCA", rows[0].PaymentMethod)
	assert.Equal(t, "salary", rows[0].Description)
}

func TestTopUp_MinimumIsInclusive(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")

	_, err := f.svc.TopUp(context.Background(), alice.ID, TopUpInput{
		Amount: amt(10000), PaymentMethod: "BCA", Pin: testPin,
	})
	require.NoError(t, err)

	below := decimal.RequireFromString("9999.99")
	_, err = f.svc.TopUp(context.Background(), alice.ID, TopUpInput{
		Amount: &below, PaymentMethod: "BCA", Pin: testPin,
	})
	requireLedgerError(t, err, KindValidation, "Top-up amount must be at least 10000")
	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(10000)))
}

func TestTopUp_ConfiguredMinimum(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	svc := NewService(f.store, plainHasher{}, Config{MinimumTopUp: decimal.NewFromInt(50)})

	_, err := svc.TopUp(context.Background(), alice.ID, TopUpInput{Amount: amt(49), PaymentMethod: "OVO", Pin: testPin})
	requireLedgerError(t, err, KindValidation, "Top-up amount must be at least 50")
	_, err = svc.TopUp(context.Background(), alice.ID, TopUpInput{Amount: amt(50), PaymentMethod: "OVO", Pin: testPin})
	require.NoError(t, err)
}

func TestTopUp_PreconditionsInOrder(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")

	cases := []struct {
		name string
		in   TopUpInput
		msg  string
	}{
		{"missing pin", TopUpInput{Amount: amt(1), PaymentMethod: "BCA"}, "Input pin is required"},
		{"wrong pin", TopUpInput{Pin: "654321"}, "Invalid PIN"},
		{"missing payment method", TopUpInput{Pin: testPin, Amount: amt(20000)}, "Payment method is required"},
		{"blank payment method", TopUpInput{Pin: testPin, PaymentMethod: "  ", Amount: amt(20000)}, "Payment method is required"},
		{"missing amount", TopUpInput{Pin: testPin, PaymentMethod: "BCA"}, "Top up amount is required"},
		{"negative amount", TopUpInput{Pin: testPin, PaymentMethod: "BCA", Amount: amt(-20000)}, "Top up amount must be greater than zero"},
		{"sub-cent amount", TopUpInput{Pin: testPin, PaymentMethod: "BCA", Amount: amtOf("10000.005")}, "Amount supports at most 2 decimal places"},
		{"sub-cent amount below minimum", TopUpInput{Pin: testPin, PaymentMethod: "BCA", Amount: amtOf("0.001")}, "Amount supports at most 2 decimal places"},
		{"below minimum", TopUpInput{Pin: testPin, PaymentMethod: "BCA", Amount: amt(500)}, "Top-up amount must be at least 10000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.TopUp(context.Background(), alice.ID, tc.in)
			requireLedgerError(t, err, KindValidation, tc.msg)
		})
	}
	assert.True(t, f.wallet(t, alice.ID).Balance.IsZero())
	assert.Empty(t, f.journal(t, alice.ID))
}

func TestTopUp_FailedJournalWriteRollsBack(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	svc := f.serviceOver(&faultyStore{MemoryStore: f.store, failType: domain.TypeTopUp})

	_, err := svc.TopUp(context.Background(), alice.ID, TopUpInput{Amount: amt(20000), PaymentMethod: "BCA", Pin: testPin})
	requireLedgerError(t, err, KindInternal, "Top up failed")
	assert.True(t, f.wallet(t, alice.ID).Balance.IsZero())
}

func TestTopUp_PublisherFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	f.events.err = assert.AnError

	_, err := f.svc.TopUp(context.Background(), alice.ID, TopUpInput{Amount: amt(20000), PaymentMethod: "BCA", Pin: testPin})
	require.NoError(t, err)
	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(20000)))
}

type stalledPublisher struct {
	entryErr error
	deadline bool
}

func (p *stalledPublisher) Publish(ctx context.Context, _ Event) error {
	p.entryErr = ctx.Err()
	_, p.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestTopUp_StalledPublisherIsBounded(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	pub := &stalledPublisher{}
	svc := NewService(f.store, plainHasher{}, Config{Location: time.UTC, PublishTimeout: 20 * time.Millisecond}, WithPublisher(pub))

	start := time.Now()
	_, err := svc.TopUp(context.Background(), alice.ID, TopUpInput{Amount: amt(20000), PaymentMethod: "BCA", Pin: testPin})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, pub.deadline)
	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(20000)))
}

func TestTopUp_EventSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	pub := &stalledPublisher{}
	svc := NewService(f.store, plainHasher{}, Config{Location: time.UTC, PublishTimeout: 10 * time.Millisecond}, WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.TopUp(ctx, alice.ID, TopUpInput{Amount: amt(20000), PaymentMethod: "BCA", Pin: testPin})
	require.NoError(t, err)
	assert.NoError(t, pub.entryErr)
}
