package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLabelLength bounds a wallet label, in characters, after whitespace trimming.
const MaxLabelLength = 255

// Wallet represents an account holding a running monetary balance.
// Balance is denormalized for O(1) reads and always equals the sum of
// the wallet's active transactions' amounts.
type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	Label         string          `json:"label"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      bool            `json:"is_active"`
	DeactivatedAt *time.Time      `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewWallet creates an active wallet with zero balance.
func NewWallet(label string) (*Wallet, error) {
	clean, err := ValidateLabel(label)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		Label:     clean,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateLabel trims and validates a wallet label, returning the cleaned value.
func ValidateLabel(label string) (string, error) {
	clean := strings.TrimSpace(label)
	if clean == "" {
		return "", ErrEmptyLabel
	}
	if utf8.RuneCountInString(clean) > MaxLabelLength {
		return "", ErrLabelTooLong
	}
	return clean, nil
}

// Deactivate marks the wallet inactive at the given instant.
// Deactivation is terminal; calling it on an inactive wallet is a no-op.
func (w *Wallet) Deactivate(at time.Time) {
	if !w.IsActive {
		return
	}
	w.IsActive = false
	w.DeactivatedAt = &at
	w.UpdatedAt = at
}

// IsDeactivated reports whether the wallet has been deactivated.
func (w *Wallet) IsDeactivated() bool {
	return !w.IsActive
}
