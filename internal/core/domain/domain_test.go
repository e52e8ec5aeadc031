package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	w, err := NewWallet("  Savings  ")
	require.NoError(t, err)

	assert.Equal(t, "Savings", w.Label)
	assert.True(t, w.IsActive)
	assert.Nil(t, w.DeactivatedAt)
	assert.True(t, w.Balance.IsZero())
	assert.NotEqual(t, uuid.Nil, w.ID)
}

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    string
		wantErr error
	}{
		{"valid", "Groceries", "Groceries", nil},
		{"trimmed", "  Rent  ", "Rent", nil},
		{"empty", "", "", ErrEmptyLabel},
		{"whitespace only", "   ", "", ErrEmptyLabel},
		{"max length", strings.Repeat("a", 255), strings.Repeat("a", 255), nil},
		{"too long", strings.Repeat("a", 256), "", ErrLabelTooLong},
		{"max length multibyte", strings.Repeat("é", 255), strings.Repeat("é", 255), nil},
		{"too long multibyte", strings.Repeat("é", 256), "", ErrLabelTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateLabel(tt.label)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWallet_Deactivate(t *testing.T) {
	w, err := NewWallet("test")
	require.NoError(t, err)

	at := time.Now().UTC()
	w.Deactivate(at)

	assert.False(t, w.IsActive)
	require.NotNil(t, w.DeactivatedAt)
	assert.Equal(t, at, *w.DeactivatedAt)
	assert.True(t, w.IsDeactivated())
}

func TestWallet_Deactivate_Terminal(t *testing.T) {
	w, err := NewWallet("test")
	require.NoError(t, err)

	first := time.Now().UTC()
	w.Deactivate(first)

	// A later call must not move the deactivation timestamp.
	w.Deactivate(first.Add(time.Hour))
	assert.Equal(t, first, *w.DeactivatedAt)
}

func TestNewTransaction(t *testing.T) {
	walletID := uuid.New()
	tx, err := NewTransaction(walletID, " t1 ", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	assert.Equal(t, walletID, tx.WalletID)
	assert.Equal(t, "t1", tx.TxID)
	assert.True(t, tx.IsActive)
	assert.Nil(t, tx.DeactivatedAt)
	assert.True(t, tx.IsCredit())
	assert.False(t, tx.IsDebit())
}

func TestNewTransaction_Invalid(t *testing.T) {
	walletID := uuid.New()

	_, err := NewTransaction(walletID, "", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrEmptyTxID)

	_, err = NewTransaction(walletID, strings.Repeat("x", 256), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrTxIDTooLong)

	// The bound counts characters, not bytes.
	_, err = NewTransaction(walletID, strings.Repeat("ü", 255), decimal.NewFromInt(10))
	assert.NoError(t, err)

	_, err = NewTransaction(walletID, "t1", decimal.Zero)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestTransaction_Direction(t *testing.T) {
	debit, err := NewTransaction(uuid.New(), "t-debit", decimal.RequireFromString("-30.00"))
	require.NoError(t, err)

	assert.True(t, debit.IsDebit())
	assert.False(t, debit.IsCredit())
}
