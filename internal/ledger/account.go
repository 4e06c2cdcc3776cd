package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
)

// allocationAttempts bounds retries when a freshly drawn wallet number loses
// a race on the unique index.
const allocationAttempts = 5

type account struct {
	user   *domain.User
	wallet *domain.Wallet
}

// NewAccount is the input of OpenAccount.
type NewAccount struct {
	Email    string
	Password string
	Pin      string
	FullName string
	Username string
	Gender   string
}

// normalizeEmail is the stored form of an email; lookups compare it exactly.
func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// OpenAccount registers a user together with their wallet.
func (s *Service) OpenAccount(ctx context.Context, in NewAccount) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Email == "":
		return nil, validation("Email is required")
	case in.Password == "":
		return nil, validation("Password is required")
	case in.Pin == "":
		return nil, validation("Pin is required")
	}
	if _, err := s.store.FindUserByEmail(ctx, in.Email); err == nil {
		return nil, validation("Email already exists")
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, s.fail("open_account", logrus.Fields{"email": in.Email}, err, "Registration failed")
	}

	password, err := s.secrets.Hash(in.Password)
	if err != nil {
		return nil, s.fail("open_account", nil, err, "Registration failed")
	}
	pin, err := s.secrets.Hash(in.Pin)
	if err != nil {
		return nil, s.fail("open_account", nil, err, "Registration failed")
	}

	var user *domain.User
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		number, err := s.alloc.Allocate(ctx, s.store)
		if err != nil {
			return nil, s.fail("open_account", nil, err, "Registration failed")
		}
		err = s.inTx(ctx, "open_account", func(tx Store) error {
			u := &domain.User{
				Email:    in.Email,
				Username: in.Username,
				FullName: in.FullName,
				Gender:   in.Gender,
				Password: password,
				Pin:      pin,
				Role:     domain.RoleUser,
			}
			if err := tx.CreateUser(ctx, u); err != nil {
				if errors.Is(err, ErrDuplicateKey) {
					return validation("Email already exists")
				}
				return err
			}
			w := &domain.Wallet{
				UserID:       u.ID,
				WalletNumber: number,
				WalletName:   domain.DefaultWalletName,
				Balance:      decimal.Zero,
			}
			if err := tx.CreateWallet(ctx, w); err != nil {
				return fmt.Errorf("create wallet %d: %w", number, err)
			}
			u.Wallet = w
			user = u
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateKey) {
			return nil, s.fail("open_account", logrus.Fields{"email": in.Email}, err, "Registration failed")
		}
		logrus.WithFields(logrus.Fields{
			"wallet_number": number,
			"attempt":       attempt + 1,
		}).Warn("Wallet number taken, drawing again")
	}
	if user == nil {
		return nil, &Error{Kind: KindConflict, Message: "Registration failed"}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       user.ID,
		"wallet_number": user.Wallet.WalletNumber,
	}).Info("Account opened")
	s.publish(ctx, Event{
		Type:         EventAccountOpened,
		WalletNumber: user.Wallet.WalletNumber,
		Amount:       decimal.Zero,
		OccurredAt:   s.clock(),
	})
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrRecordNotFound) {
		return nil, unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, s.fail("authenticate", nil, err, "Login failed")
	}
	if !s.secrets.Compare(user.Password, password) {
		return nil, unauthorized("Invalid email or password")
	}
	return user, nil
}

// BalanceView is the current state of a user's wallet.
type BalanceView struct {
	Balance      decimal.Decimal `json:"balance"`
	WalletNumber int64           `json:"walletNumber"`
	AccountName  string          `json:"accountName"`
	LastUpdated  time.Time       `json:"lastUpdated"`
}

// Balance returns the live balance of the user's wallet.
func (s *Service) Balance(ctx context.Context, userID uint) (*BalanceView, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("balance", logrus.Fields{"user_id": userID}, err, "Failed to retrieve balance")
	}
	return &BalanceView{
		Balance:      acc.wallet.Balance,
		WalletNumber: acc.wallet.WalletNumber,
		AccountName:  acc.user.FullName,
		LastUpdated:  acc.wallet.UpdatedAt,
	}, nil
}

// ProfileView is the user's own profile.
type ProfileView struct {
	ID           uint            `json:"id"`
	Email        string          `json:"email"`
	Username     string          `json:"username"`
	FullName     string          `json:"fullName"`
	Gender       string          `json:"gender,omitempty"`
	AvatarURL    string          `json:"avatarUrl,omitempty"`
	WalletNumber int64           `json:"walletNumber"`
	WalletName   string          `json:"walletName"`
	Balance      decimal.Decimal `json:"balance"`
}

// Profile returns the user's profile together with wallet details.
func (s *Service) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	acc, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, s.fail("profile", logrus.Fields{"user_id": userID}, err, "Failed to retrieve profile")
	}
	return &ProfileView{
		ID:           acc.user.ID,
		Email:        acc.user.Email,
		Username:     acc.user.Username,
		FullName:     acc.user.FullName,
		Gender:       acc.user.Gender,
		AvatarURL:    acc.user.AvatarURL,
		WalletNumber: acc.wallet.WalletNumber,
		WalletName:   acc.wallet.WalletName,
		Balance:      acc.wallet.Balance,
	}, nil
}

// ProfileUpdate holds editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FullName  string
	Username  string
	AvatarURL string
}

// UpdateProfile edits the user's display fields.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*ProfileView, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, s.fail("update_profile", logrus.Fields{"user_id": userID}, err, "Failed to update profile")
	}
	if name := strings.TrimSpace(in.FullName); name != "" {
		user.FullName = name
	}
	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if avatar := strings.TrimSpace(in.AvatarURL); avatar != "" {
		user.AvatarURL = avatar
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, s.fail("update_profile", logrus.Fields{"user_id": userID}, err, "Failed to update profile")
	}
	return s.Profile(ctx, userID)
}

// WalletOwnerView identifies the holder of a wallet number.
type WalletOwnerView struct {
	WalletNumber int64  `json:"walletNumber"`
	WalletName   string `json:"walletName"`
	FullName     string `json:"fullName"`
}

// WalletOwner resolves who owns a wallet number, for confirming a recipient.
func (s *Service) WalletOwner(ctx context.Context, number int64) (*WalletOwnerView, error) {
	wallet, err := s.store.FindWalletByNumber(ctx, number)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("Wallet number not found")
	}
	if err != nil {
		return nil, s.fail("wallet_owner", logrus.Fields{"wallet_number": number}, err, "Failed to find wallet")
	}
	user, err := s.store.FindUserByID(ctx, wallet.UserID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("Wallet number not found")
	}
	if err != nil {
		return nil, s.fail("wallet_owner", logrus.Fields{"wallet_number": number}, err, "Failed to find wallet")
	}
	return &WalletOwnerView{WalletNumber: number, WalletName: wallet.WalletName, FullName: user.FullName}, nil
}
