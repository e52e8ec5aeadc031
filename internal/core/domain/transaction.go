package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTxIDLength bounds the externally supplied transaction id, in characters.
const MaxTxIDLength = 255

// Domain validation errors. The service layer maps these to typed failures.
var (
	ErrEmptyLabel   = errors.New("label cannot be empty")
	ErrLabelTooLong = errors.New("label cannot exceed 255 characters")
	ErrEmptyTxID    = errors.New("txid cannot be empty")
	ErrTxIDTooLong  = errors.New("txid cannot exceed 255 characters")
	ErrZeroAmount   = errors.New("amount cannot be zero")
)

// Transaction is an immutable signed delta applied once to a wallet's balance.
// It is identified externally by TxID, which is unique across all transactions.
// A transaction is never edited after creation; it becomes inactive only when
// its wallet's deactivation cascades to it.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	TxID          string          `json:"txid"`
	Amount        decimal.Decimal `json:"amount"`
	IsActive      bool            `json:"is_active"`
	DeactivatedAt *time.Time      `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewTransaction creates an active transaction for the given wallet.
func NewTransaction(walletID uuid.UUID, txid string, amount decimal.Decimal) (*Transaction, error) {
	clean, err := ValidateTxID(txid)
	if err != nil {
		return nil, err
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		TxID:      clean,
		Amount:    amount,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateTxID trims and validates an external transaction id.
func ValidateTxID(txid string) (string, error) {
	clean := strings.TrimSpace(txid)
	if clean == "" {
		return "", ErrEmptyTxID
	}
	if utf8.RuneCountInString(clean) > MaxTxIDLength {
		return "", ErrTxIDTooLong
	}
	return clean, nil
}

// ValidateAmount rejects zero amounts; sign carries the credit/debit direction.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	return nil
}

// IsCredit reports whether the transaction adds funds.
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// IsDebit reports whether the transaction removes funds.
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}
