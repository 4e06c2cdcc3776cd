package ledger

import (
	"context"
	"math/rand/v2"

	"wallet_ledger/internal/domain"
)

// Allocator draws unused six digit wallet numbers.
type Allocator struct {
	draw func() int64
}

// NewAllocator returns an Allocator using draw as its number source. A nil
// draw picks uniformly from the wallet number range.
func NewAllocator(draw func() int64) *Allocator {
	if draw == nil {
		draw = func() int64 {
			return domain.MinWalletNumber + rand.Int64N(domain.MaxWalletNumber-domain.MinWalletNumber+1)
		}
	}
	return &Allocator{draw: draw}
}

// Allocate draws until the store reports the number unused. The store's
// unique index still decides the winner when two callers race.
func (a *Allocator) Allocate(ctx context.Context, store Store) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n := a.draw()
		exists, err := store.WalletNumberExists(ctx, n)
		if err != nil {
			return 0, err
		}
		if !exists {
			return n, nil
		}
	}
}
