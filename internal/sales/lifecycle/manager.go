package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

// Session is the per-terminal sale flow persisted in redis. One terminal has
// at most one session; while it is Submitting a second Execute is refused.
type Session struct {
	TerminalID     uuid.UUID              `json:"terminal_id"`
	State          State                  `json:"state"`
	Category       *enums.VoucherCategory `json:"category,omitempty"`
	VoucherTypeID  *uuid.UUID             `json:"voucher_type_id,omitempty"`
	Amount         *decimal.Decimal       `json:"amount,omitempty"`
	ConfirmEnabled bool                   `json:"confirm_enabled"`
	SaleID         *uuid.UUID             `json:"sale_id,omitempty"`
	LastErrorCode  string                 `json:"last_error_code,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SaleSessionKey(terminalID string) string
}

// submitClaimTTL bounds the per-terminal submit lock. It only has to cover
// the claim itself; a crashed claimant frees the terminal when it expires.
const submitClaimTTL = 10 * time.Second

// Manager owns the sale session lifecycle for every terminal.
type Manager interface {
	Load(ctx context.Context, terminalID uuid.UUID) (*Session, error)
	SelectCategory(ctx context.Context, terminalID uuid.UUID, category enums.VoucherCategory) (*Session, error)
	SelectValue(ctx context.Context, terminalID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*Session, error)
	Review(ctx context.Context, terminalID uuid.UUID, fundable bool) (*Session, error)
	BeginSubmit(ctx context.Context, terminalID uuid.UUID) (*Session, error)
	CompleteSuccess(ctx context.Context, terminalID, saleID uuid.UUID) (*Session, error)
	CompleteFailure(ctx context.Context, terminalID uuid.UUID, code pkgerrors.Code) (*Session, error)
	Retry(ctx context.Context, terminalID uuid.UUID) (*Session, error)
	Cancel(ctx context.Context, terminalID uuid.UUID) (*Session, error)
	NewSale(ctx context.Context, terminalID uuid.UUID) (*Session, error)
}

type manager struct {
	store sessionStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewManager wires the redis-backed session manager.
func NewManager(store sessionStore, ttl time.Duration, logg *logger.Logger) (Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &manager{store: store, ttl: ttl, logg: logg}, nil
}

// Load returns the terminal's current session, or a fresh Idle one when none
// exists (or the previous one expired).
func (m *manager) Load(ctx context.Context, terminalID uuid.UUID) (*Session, error) {
	if terminalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	raw, err := m.store.Get(ctx, m.store.SaleSessionKey(terminalID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return &Session{TerminalID: terminalID, State: StateIdle, UpdatedAt: time.Now().UTC()}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt session must never wedge the terminal.
		if m.logg != nil {
			m.logg.Warn(ctx, fmt.Sprintf("discarding corrupt sale session for terminal %s: %v", terminalID, err))
		}
		return &Session{TerminalID: terminalID, State: StateIdle, UpdatedAt: time.Now().UTC()}, nil
	}
	return &session, nil
}

func (m *manager) SelectCategory(ctx context.Context, terminalID uuid.UUID, category enums.VoucherCategory) (*Session, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown voucher category %q", category))
	}
	return m.apply(ctx, terminalID, EventSelectCategory, func(s *Session) {
		s.Category = &category
		s.VoucherTypeID = nil
		s.Amount = nil
		s.ConfirmEnabled = false
		s.SaleID = nil
		s.LastErrorCode = ""
	})
}

func (m *manager) SelectValue(ctx context.Context, terminalID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*Session, error) {
	if voucherTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher type id required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return m.apply(ctx, terminalID, EventSelectValue, func(s *Session) {
		s.VoucherTypeID = &voucherTypeID
		s.Amount = &amount
		s.ConfirmEnabled = false
	})
}

// Review moves the flow to the confirmation step. When the funds check says
// the sale is unfundable the session still lands on ConfirmPending, it just
// keeps the confirm action disabled.
func (m *manager) Review(ctx context.Context, terminalID uuid.UUID, fundable bool) (*Session, error) {
	return m.apply(ctx, terminalID, EventReview, func(s *Session) {
		s.ConfirmEnabled = fundable
	})
}

// BeginSubmit claims the one in-flight slot for the terminal. A session that
// is already Submitting refuses a second submission outright.
func (m *manager) BeginSubmit(ctx context.Context, terminalID uuid.UUID) (*Session, error) {
	if terminalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}

	// The claim must be mutually exclusive per terminal: with a plain
	// load-then-store, two concurrent confirmations can both observe
	// ConfirmPending and both reach the executor.
	lockKey := m.store.SaleSessionKey(terminalID.String()) + ":submit"
	acquired, err := m.store.SetNX(ctx, lockKey, "1", submitClaimTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claiming sale submission")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a sale is already being submitted from this terminal")
	}
	defer func() { _ = m.store.Del(ctx, lockKey) }()

	session, err := m.Load(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if session.State == StateSubmitting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a sale is already being submitted from this terminal")
	}
	if !session.ConfirmEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not confirmed or cannot be funded")
	}
	next, err := Next(session.State, EventSubmit)
	if err != nil {
		return nil, err
	}
	session.State = next
	session.LastErrorCode = ""
	return m.persist(ctx, session)
}

func (m *manager) CompleteSuccess(ctx context.Context, terminalID, saleID uuid.UUID) (*Session, error) {
	return m.apply(ctx, terminalID, EventSucceed, func(s *Session) {
		s.SaleID = &saleID
		s.ConfirmEnabled = false
	})
}

func (m *manager) CompleteFailure(ctx context.Context, terminalID uuid.UUID, code pkgerrors.Code) (*Session, error) {
	return m.apply(ctx, terminalID, EventFail, func(s *Session) {
		s.LastErrorCode = string(code)
		s.ConfirmEnabled = false
	})
}

// Retry re-enters the confirmation step after a failure. The cashier has to
// confirm again; nothing is resubmitted automatically.
func (m *manager) Retry(ctx context.Context, terminalID uuid.UUID) (*Session, error) {
	return m.apply(ctx, terminalID, EventRetry, func(s *Session) {
		s.LastErrorCode = ""
		s.ConfirmEnabled = false
	})
}

func (m *manager) Cancel(ctx context.Context, terminalID uuid.UUID) (*Session, error) {
	return m.reset(ctx, terminalID, EventCancel)
}

func (m *manager) NewSale(ctx context.Context, terminalID uuid.UUID) (*Session, error) {
	return m.reset(ctx, terminalID, EventNewSale)
}

func (m *manager) reset(ctx context.Context, terminalID uuid.UUID, event Event) (*Session, error) {
	session, err := m.Load(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(session.State, event); err != nil {
		return nil, err
	}
	if err := m.store.Del(ctx, m.store.SaleSessionKey(terminalID.String())); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing sale session")
	}
	return &Session{TerminalID: terminalID, State: StateIdle, UpdatedAt: time.Now().UTC()}, nil
}

func (m *manager) apply(ctx context.Context, terminalID uuid.UUID, event Event, mutate func(*Session)) (*Session, error) {
	session, err := m.Load(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	next, err := Next(session.State, event)
	if err != nil {
		return nil, err
	}
	session.State = next
	if mutate != nil {
		mutate(session)
	}
	return m.persist(ctx, session)
}

func (m *manager) persist(ctx context.Context, session *Session) (*Session, error) {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding sale session")
	}
	key := m.store.SaleSessionKey(session.TerminalID.String())
	if err := m.store.Set(ctx, key, string(payload), m.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing sale session")
	}
	return session, nil
}
