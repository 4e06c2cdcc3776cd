package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

func sequence(numbers ...int64) func() int64 {
	i := 0
	return func() int64 {
		n := numbers[i%len(numbers)]
		i++
		return n
	}
}

func TestOpenAccount(t *testing.T) {
	f := newFixture(t)
	u := f.open(t, "Alice Smith")

	require.NotNil(t, u.Wallet)
	assert.Equal(t, domain.DefaultWalletName, u.Wallet.WalletName)
	assert.True(t, u.Wallet.Balance.IsZero())
	assert.GreaterOrEqual(t, u.Wallet.WalletNumber, domain.MinWalletNumber)
	assert.LessOrEqual(t, u.Wallet.WalletNumber, domain.MaxWalletNumber)
	assert.Equal(t, "hashed:"+testPin, u.Pin)
	assert.Equal(t, domain.RoleUser, u.Role)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventAccountOpened, f.events.events[0].Type)
}

func TestOpenAccount_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.open(t, "Alice Smith")

	_, err := f.svc.OpenAccount(context.Background(), NewAccount{
		Email: "ALICE.SMITH@example.com", Password: "x", Pin: "1",
	})
	requireLedgerError(t, err, KindValidation, "Email already exists")
}

func TestOpenAccount_StoresEmailLowercased(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.OpenAccount(context.Background(), NewAccount{
		Email: "  Carol.Jones@Example.COM ", Password: "secret-pass", Pin: testPin,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol.jones@example.com", u.Email)

	stored, err := f.store.FindUserByEmail(context.Background(), "carol.jones@example.com")
	require.NoError(t, err)
	assert.Equal(t, "carol.jones@example.com", stored.Email)

	got, err := f.svc.Authenticate(context.Background(), "CAROL.JONES@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestOpenAccount_RequiredFields(t *testing.T) {
	f := newFixture(t)
	cases := map[string]NewAccount{
		"Email is required":    {Password: "p", Pin: "1"},
		"Password is required": {Email: "a@b.c", Pin: "1"},
		"Pin is required":      {Email: "a@b.c", Password: "p"},
	}
	for msg, in := range cases {
		_, err := f.svc.OpenAccount(context.Background(), in)
		requireLedgerError(t, err, KindValidation, msg)
	}
}

func TestAllocator_SkipsNumbersInUse(t *testing.T) {
	f := newFixture(t, WithAllocator(NewAllocator(sequence(111111, 111111, 222222))))
	first := f.open(t, "Alice Smith")
	second := f.open(t, "Bob Jones")

	assert.Equal(t, int64(111111), first.Wallet.WalletNumber)
	assert.Equal(t, int64(222222), second.Wallet.WalletNumber)
}

// racyStore hides existing wallet numbers from the pre-check, as if another
// registration committed the same number in between.
type racyStore struct {
	*MemoryStore
}

func (racyStore) WalletNumberExists(context.Context, int64) (bool, error) { return false, nil }

func TestOpenAccount_RetriesWhenNumberLosesRace(t *testing.T) {
	f := newFixture(t, WithAllocator(NewAllocator(sequence(333333))))
	f.open(t, "Alice Smith")

	svc := NewService(racyStore{f.store}, plainHasher{}, Config{},
		WithAllocator(NewAllocator(sequence(333333, 333333, 444444))))
	u, err := svc.OpenAccount(context.Background(), NewAccount{
		Email: "bob@example.com", Password: "p", Pin: "1", FullName: "Bob Jones",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(444444), u.Wallet.WalletNumber)

	_, err = f.store.FindUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	users, total, err := f.store.ListUsers(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "losing attempts must not leave users behind")
	assert.Len(t, users, 2)
}

func TestOpenAccount_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t, WithAllocator(NewAllocator(sequence(333333))))
	f.open(t, "Alice Smith")

	svc := NewService(racyStore{f.store}, plainHasher{}, Config{},
		WithAllocator(NewAllocator(sequence(333333))))
	_, err := svc.OpenAccount(context.Background(), NewAccount{Email: "bob@example.com", Password: "p", Pin: "1"})
	requireLedgerError(t, err, KindConflict, "Registration failed")
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	ctx := context.Background()

	u, err := f.svc.Authenticate(ctx, "alice.smith@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = f.svc.Authenticate(ctx, "alice.smith@example.com", "wrong")
	requireLedgerError(t, err, KindUnauthorized, "Invalid email or password")
	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "secret-password")
	requireLedgerError(t, err, KindUnauthorized, "Invalid email or password")
}

func TestBalanceAndProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")
	f.topUp(t, alice.ID, 15000)
	ctx := context.Background()

	bal, err := f.svc.Balance(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, alice.Wallet.WalletNumber, bal.WalletNumber)
	assert.Equal(t, "Alice Smith", bal.AccountName)
	assert.Equal(t, testNow, bal.LastUpdated)

	p, err := f.svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: "ally", FullName: "  "})
	require.NoError(t, err)
	assert.Equal(t, "ally", p.Username)
	assert.Equal(t, "Alice Smith", p.FullName)
	assert.Equal(t, alice.Wallet.WalletNumber, p.WalletNumber)

	_, err = f.svc.Balance(ctx, 99)
	requireLedgerError(t, err, KindNotFound, "User not found")
}

func TestWalletOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.open(t, "Alice Smith")

	owner, err := f.svc.WalletOwner(context.Background(), alice.Wallet.WalletNumber)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", owner.FullName)
	assert.Equal(t, domain.DefaultWalletName, owner.WalletName)

	_, err = f.svc.WalletOwner(context.Background(), 100000)
	requireLedgerError(t, err, KindNotFound, "Wallet number not found")
}
