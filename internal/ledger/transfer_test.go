package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

func TestTransfer_MovesFundsAndWritesBothLegs(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 50000)

	res, err := f.svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber,
		Amount:         amt(12500),
		Pin:            testPin,
		Notes:          "dinner",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Transfer Success", res.Message)
	assert.Equal(t, "Bob Jones", res.RecipientName)
	assert.Equal(t, bob.ID, res.RecipientUserID)
	assert.True(t, res.Balance.Equal(decimal.NewFromInt(37500)))

	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(37500)))
	assert.True(t, f.wallet(t, bob.ID).Balance.Equal(decimal.NewFromInt(12500)))
	assert.Equal(t, testNow, f.wallet(t, bob.ID).UpdatedAt)

	out := f.journal(t, alice.ID)
	require.Len(t, out, 2)
	assert.Equal(t, domain.TypeTransferOut, out[1].TransactionType)
	in := f.journal(t, bob.ID)
	require.Len(t, in, 1)
	assert.Equal(t, domain.TypeTransferIn, in[0].TransactionType)

	for _, leg := range []domain.Transaction{out[1], in[0]} {
		assert.True(t, leg.Amount.Equal(decimal.NewFromInt(12500)))
		assert.Equal(t, alice.Wallet.WalletNumber, leg.FromWalletNumber)
		assert.Equal(t, bob.Wallet.WalletNumber, leg.ToWalletNumber)
		assert.Equal(t, "dinner", leg.Description)
		assert.Equal(t, domain.TransferPaymentMethod, leg.PaymentMethod)
		assert.Equal(t, testNow, leg.TransactionDate)
	}
}

func TestTransfer_PreconditionsInOrder(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 20000)

	cases := []struct {
		name string
		in   TransferInput
		kind Kind
		msg  string
	}{
		{"missing pin beats everything", TransferInput{}, KindValidation, "Input your pin"},
		{"wrong pin", TransferInput{Pin: "000000", ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(1)}, KindValidation, "Invalid PIN"},
		{"missing wallet number", TransferInput{Pin: testPin, Amount: amt(1)}, KindValidation, "Input wallet number"},
		{"missing amount", TransferInput{Pin: testPin, ToWalletNumber: bob.Wallet.WalletNumber}, KindValidation, "Transfer amount is required"},
		{"zero amount", TransferInput{Pin: testPin, ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(0)}, KindValidation, "Transfer amount must be greater than zero"},
		{"negative amount", TransferInput{Pin: testPin, ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(-500)}, KindValidation, "Transfer amount must be greater than zero"},
		{"sub-cent amount", TransferInput{Pin: testPin, ToWalletNumber: bob.Wallet.WalletNumber, Amount: amtOf("0.001")}, KindValidation, "Amount supports at most 2 decimal places"},
		{"sub-cent amount before self transfer", TransferInput{Pin: testPin, ToWalletNumber: alice.Wallet.WalletNumber, Amount: amtOf("0.004")}, KindValidation, "Amount supports at most 2 decimal places"},
		{"self transfer", TransferInput{Pin: testPin, ToWalletNumber: alice.Wallet.WalletNumber, Amount: amt(1)}, KindValidation, "You cant transfer to yourself"},
		{"self transfer before balance", TransferInput{Pin: testPin, ToWalletNumber: alice.Wallet.WalletNumber, Amount: amt(999999)}, KindValidation, "You cant transfer to yourself"},
		{"unknown receiver", TransferInput{Pin: testPin, ToWalletNumber: 99, Amount: amt(1)}, KindNotFound, "Receiver wallet number is not found"},
		{"unknown receiver before balance", TransferInput{Pin: testPin, ToWalletNumber: 99, Amount: amt(999999)}, KindNotFound, "Receiver wallet number is not found"},
		{"insufficient balance", TransferInput{Pin: testPin, ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(20001)}, KindValidation, "Balance is not enough"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Transfer(context.Background(), alice.ID, tc.in)
			requireLedgerError(t, err, tc.kind, tc.msg)
		})
	}

	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(20000)))
	assert.True(t, f.wallet(t, bob.ID).Balance.IsZero())
	assert.Len(t, f.journal(t, alice.ID), 1)
	assert.Empty(t, f.journal(t, bob.ID))
}

func TestTransfer_AcceptsCentsAndTrailingZeros(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 20000)

	for _, v := range []string{"0.01", "2500.50", "100.500"} {
		_, err := f.svc.Transfer(context.Background(), alice.ID, TransferInput{
			ToWalletNumber: bob.Wallet.WalletNumber, Amount: amtOf(v), Pin: testPin,
		})
		require.NoError(t, err, v)
	}
	assert.True(t, f.wallet(t, bob.ID).Balance.Equal(decimal.RequireFromString("2601.01")))

	rec, err := f.svc.Reconcile(context.Background(), bob.Wallet.WalletNumber)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestTransfer_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transfer(context.Background(), 42, TransferInput{Pin: testPin})
	requireLedgerError(t, err, KindNotFound, "User not found")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransfer_ExactBalanceEmptiesWallet(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 10000)

	_, err := f.svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(10000), Pin: testPin,
	})
	require.NoError(t, err)
	assert.True(t, f.wallet(t, alice.ID).Balance.IsZero())
}

func TestTransfer_FailedJournalWriteRollsBack(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 30000)

	svc := f.serviceOver(&faultyStore{MemoryStore: f.store, failType: domain.TypeTransferIn})
	_, err := svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(5000), Pin: testPin,
	})
	requireLedgerError(t, err, KindInternal, "Transfer failed")
	assert.ErrorIs(t, err, ErrInternal)

	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(30000)))
	assert.True(t, f.wallet(t, bob.ID).Balance.IsZero())
	assert.Len(t, f.journal(t, alice.ID), 1)
	assert.Empty(t, f.journal(t, bob.ID))
}

func TestTransfer_RetriesRetryableConflicts(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 30000)

	store := &faultyStore{MemoryStore: f.store, conflicts: 2}
	svc := f.serviceOver(store)
	_, err := svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(5000), Pin: testPin,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.True(t, f.wallet(t, bob.ID).Balance.Equal(decimal.NewFromInt(5000)))
}

func TestTransfer_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 30000)

	store := &faultyStore{MemoryStore: f.store, conflicts: 10}
	svc := f.serviceOver(store)
	_, err := svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(5000), Pin: testPin,
	})
	requireLedgerError(t, err, KindConflict, "Transfer failed")
	assert.Equal(t, 3, store.calls)
	assert.True(t, f.wallet(t, alice.ID).Balance.Equal(decimal.NewFromInt(30000)))
}

func TestTransfer_PublishesEventAfterCommit(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 30000)
	f.events.events = nil

	_, err := f.svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(5000), Pin: testPin,
	})
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, EventTransferCompleted, ev.Type)
	assert.Equal(t, alice.Wallet.WalletNumber, ev.WalletNumber)
	assert.Equal(t, bob.Wallet.WalletNumber, ev.TargetWalletNumber)
	assert.NotEmpty(t, ev.ID)

	f.events.events = nil
	_, err = f.svc.Transfer(context.Background(), alice.ID, TransferInput{
		ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(999999), Pin: testPin,
	})
	require.Error(t, err)
	assert.Empty(t, f.events.events)
}

func TestTransfer_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 20000)

	const workers = 30
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Transfer(context.Background(), alice.ID, TransferInput{
				ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(1000), Pin: testPin,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if Message(err) == "Balance is not enough" {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)
	assert.Equal(t, 10, rejected)
	assert.True(t, f.wallet(t, alice.ID).Balance.IsZero())
	assert.True(t, f.wallet(t, bob.ID).Balance.Equal(decimal.NewFromInt(20000)))
	assert.Len(t, f.journal(t, bob.ID), 20)
}

func TestTransfer_ConcurrentOppositeDirectionsConserveTotal(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	bob := f.open(t, "Bob Jones")
	f.topUp(t, alice.ID, 50000)
	f.topUp(t, bob.ID, 50000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Transfer(context.Background(), alice.ID, TransferInput{
				ToWalletNumber: bob.Wallet.WalletNumber, Amount: amt(700), Pin: testPin,
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.svc.Transfer(context.Background(), bob.ID, TransferInput{
				ToWalletNumber: alice.Wallet.WalletNumber, Amount: amt(300), Pin: testPin,
			})
		}()
	}
	wg.Wait()

	a := f.wallet(t, alice.ID).Balance
	b := f.wallet(t, bob.ID).Balance
	assert.True(t, a.Add(b).Equal(decimal.NewFromInt(100000)))
	assert.True(t, a.Equal(decimal.NewFromInt(50000-20*700+20*300)))

	for _, u := range []*domain.User{alice, bob} {
		rec, err := f.svc.Reconcile(context.Background(), u.Wallet.WalletNumber)
		require.NoError(t, err)
		assert.True(t, rec.Consistent)
	}
}
