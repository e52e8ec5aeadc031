package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService defines the mutating ledger operations. Mutations on the same
// wallet are fully serialized; operations on different wallets do not block
// each other.
type LedgerService interface {
	// CreateWallet creates an active wallet with zero balance. When req.
	// InitialBalance is set, the opening balance is recorded as a real first
	// transaction carrying req.InitialTxID.
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	// ApplyTransaction applies a signed amount to the wallet balance and
	// records the transaction, as one atomic unit.
	ApplyTransaction(ctx context.Context, req ApplyTransactionRequest) (*domain.Transaction, error)
	// DeactivateWallet deactivates the wallet and cascades to all of its
	// active transactions with one shared timestamp. Idempotent.
	DeactivateWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	// UpdateLabel renames the wallet. Permitted on deactivated wallets.
	UpdateLabel(ctx context.Context, walletID uuid.UUID, newLabel string) (*domain.Wallet, error)
}

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	Label          string
	InitialBalance *decimal.Decimal // nil = start at zero
	InitialTxID    string           // required when InitialBalance is set
}

// ApplyTransactionRequest holds validated input for transaction application.
type ApplyTransactionRequest struct {
	WalletID uuid.UUID
	TxID     string
	Amount   decimal.Decimal
}

// LedgerQueryService defines the read-only operations. Reads never take the
// per-wallet lock; they may be stale relative to in-flight writes but are
// never torn.
type LedgerQueryService interface {
	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	ListWallets(ctx context.Context, filter WalletFilter) ([]domain.Wallet, error)
	// SearchTransactions returns the transactions of every wallet in the input
	// set, deactivated history included. Unknown wallet ids are not an error.
	SearchTransactions(ctx context.Context, walletIDs []uuid.UUID) ([]domain.Transaction, error)
	GetTransactionByTxID(ctx context.Context, txid string) (*domain.Transaction, error)
}
