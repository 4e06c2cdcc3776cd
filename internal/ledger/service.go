package ledger

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SecretHasher hashes and verifies passwords and PINs.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}

// Publisher receives ledger events after their transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Event types
const (
	EventAccountOpened     = "account.opened"
	EventTransferCompleted = "transfer.completed"
	EventTopUpCompleted    = "topup.completed"
)

// Event describes a committed balance change.
type Event struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	WalletNumber       int64           `json:"walletNumber"`
	TargetWalletNumber int64           `json:"targetWalletNumber,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	OccurredAt         time.Time       `json:"occurredAt"`
}

// Config tunes the ledger engine.
type Config struct {
	MinimumTopUp     decimal.Decimal
	Location         *time.Location
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	// PublishTimeout bounds how long a committed operation waits on its event.
	PublishTimeout time.Duration
}

// DefaultMinimumTopUp is the smallest accepted top-up.
var DefaultMinimumTopUp = decimal.NewFromInt(10000)

func (c Config) withDefaults() Config {
	if c.MinimumTopUp.IsZero() {
		c.MinimumTopUp = DefaultMinimumTopUp
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 20 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 2 * time.Second
	}
	return c
}

// Service implements the wallet ledger operations on top of a Store.
type Service struct {
	store   Store
	secrets SecretHasher
	events  Publisher
	alloc   *Allocator
	cfg     Config
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the event sink. Without one no events are emitted.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAllocator replaces the default wallet number allocator.
func WithAllocator(a *Allocator) Option {
	return func(s *Service) { s.alloc = a }
}

// NewService builds a Service.
func NewService(store Store, secrets SecretHasher, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:   store,
		secrets: secrets,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alloc == nil {
		s.alloc = NewAllocator(nil)
	}
	return s
}

// MinimumTopUp returns the configured top-up floor.
func (s *Service) MinimumTopUp() decimal.Decimal { return s.cfg.MinimumTopUp }

func (s *Service) clock() time.Time { return s.now().In(s.cfg.Location) }

// inTx runs fn in a transactional scope, running it again when the store
// reports a deadlock or serialization failure.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx Store) error) error {
	var err error
	for attempt := 0; attempt < s.cfg.RetryMaxAttempts; attempt++ {
		err = s.store.WithinTx(ctx, fn)
		if err == nil || !errors.Is(err, ErrRetryable) {
			return err
		}
		if attempt == s.cfg.RetryMaxAttempts-1 {
			break
		}
		delay := s.backoff(attempt)
		logrus.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
			"delay":     delay.String(),
		}).Warn("Retrying ledger transaction")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *Service) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * s.cfg.RetryBaseDelay
	if delay > s.cfg.RetryMaxDelay {
		delay = s.cfg.RetryMaxDelay
	}
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.3)
	return delay + jitter - time.Duration(float64(delay)*0.15)
}

// fail turns err into the error returned to callers. Ledger errors pass
// through; anything else is logged and replaced by a generic failure.
func (s *Service) fail(op string, fields logrus.Fields, err error, msg string) error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["operation"] = op
	fields["error"] = err.Error()
	logrus.WithFields(fields).Error(msg)
	kind := KindInternal
	if errors.Is(err, ErrRetryable) {
		kind = KindConflict
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	// The operation has committed; a cancelled request must not drop its event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PublishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_id":      ev.ID,
			"event_type":    ev.Type,
			"wallet_number": ev.WalletNumber,
			"error":         err.Error(),
		}).Warn("Failed to publish ledger event")
	}
}

// currentUser resolves the acting user and their wallet.
func (s *Service) currentUser(ctx context.Context, userID uint) (*account, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	wallet, err := s.store.FindWalletByUserID(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, notFound("Wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return &account{user: user, wallet: wallet}, nil
}

// Location is the zone calendar dates are interpreted in.
func (s *Service) Location() *time.Location { return s.cfg.Location }
