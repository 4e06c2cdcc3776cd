package ledger

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// FavoriteResult reports a saved favorite.
type FavoriteResult struct {
	Result
	WalletNumber int64  `json:"walletNumber"`
	FullName     string `json:"fullName"`
}

// FavoriteView is a favorite joined with its live wallet and owner names.
type FavoriteView struct {
	ID           uint   `json:"id"`
	WalletNumber int64  `json:"walletNumber"`
	WalletName   string `json:"walletName"`
	OwnerName    string `json:"ownerName"`
}

// AddFavorite remembers walletNumber as a transfer recipient of the user.
func (s *Service) AddFavorite(ctx context.Context, userID uint, walletNumber int64) (*FavoriteResult, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("add_favorite", logrus.Fields{"user_id": userID}, err, "Failed to add favorite")
	}
	if walletNumber == 0 {
		return nil, validation("Input wallet number")
	}
	if walletNumber == acc.wallet.WalletNumber {
		return nil, validation("You cannot add your own wallet number")
	}
	if _, err := s.store.FindFavorite(ctx, userID, walletNumber); err == nil {
		return nil, validation("Wallet number already added to favorites")
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, s.fail("add_favorite", logrus.Fields{"user_id": userID}, err, "Failed to add favorite")
	}
	owner, err := s.store.FindUserByWalletNumber(ctx, walletNumber)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("User favorite is not found")
	}
	if err != nil {
		return nil, s.fail("add_favorite", logrus.Fields{"user_id": userID}, err, "Failed to add favorite")
	}

	fav := &domain.Favorite{UserID: userID, WalletNumber: walletNumber}
	if err := s.store.CreateFavorite(ctx, fav); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, validation("Wallet number already added to favorites")
		}
		return nil, s.fail("add_favorite", logrus.Fields{"user_id": userID}, err, "Failed to add favorite")
	}
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"wallet_number": walletNumber,
	}).Info("Favorite added")
	return &FavoriteResult{
		Result:       success("Favorite is added"),
		WalletNumber: walletNumber,
		FullName:     owner.FullName,
	}, nil
}

// ListFavorites returns the user's favorites. Names are resolved at read
// time so renames show up immediately; a vanished wallet renders empty names.
func (s *Service) ListFavorites(ctx context.Context, userID uint) ([]FavoriteView, error) {
	if _, err := s.currentUser(ctx, userID); err != nil {
		return nil, s.fail("list_favorites", logrus.Fields{"user_id": userID}, err, "Failed to list favorites")
	}
	favs, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, s.fail("list_favorites", logrus.Fields{"user_id": userID}, err, "Failed to list favorites")
	}
	views := make([]FavoriteView, 0, len(favs))
	for _, f := range favs {
		v := FavoriteView{ID: f.ID, WalletNumber: f.WalletNumber}
		if w, err := s.store.FindWalletByNumber(ctx, f.WalletNumber); err == nil {
			v.WalletName = w.WalletName
			if u, err := s.store.FindUserByID(ctx, w.UserID); err == nil {
				v.OwnerName = u.FullName
			}
		} else if !errors.Is(err, ErrRecordNotFound) {
			return nil, s.fail("list_favorites", logrus.Fields{"user_id": userID}, err, "Failed to list favorites")
		}
		views = append(views, v)
	}
	return views, nil
}

// DeleteFavorite forgets walletNumber from the user's favorites.
func (s *Service) DeleteFavorite(ctx context.Context, userID uint, walletNumber int64) (*Result, error) {
	fav, err := s.store.FindFavorite(ctx, userID, walletNumber)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("Favorite not found")
	}
	if err != nil {
		return nil, s.fail("delete_favorite", logrus.Fields{"user_id": userID}, err, "Failed to delete favorite")
	}
	if err := s.store.DeleteFavorite(ctx, fav.ID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, notFound("Favorite not found")
		}
		return nil, s.fail("delete_favorite", logrus.Fields{"user_id": userID}, err, "Failed to delete favorite")
	}
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"wallet_number": walletNumber,
	}).Info("Favorite deleted")
	res := success("Delete favorite success")
	return &res, nil
}
