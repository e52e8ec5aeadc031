package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a database transaction; GetByIDForUpdate
// acquires the wallet's exclusive row lock, which is the sole serialization
// mechanism for mutations to one wallet.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// GetByIDForUpdate locks the wallet row until the surrounding transaction
	// ends. A bounded lock wait applies; on expiry it returns SYS_002.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	List(ctx context.Context, filter WalletFilter) ([]domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error
	UpdateLabel(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, label string, updatedAt time.Time) error
	Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) error
}

// WalletFilter holds optional filters for listing wallets.
type WalletFilter struct {
	IsActive  *bool
	WalletIDs []uuid.UUID
	// Ordering is one of "balance", "-balance", "created_at", "-created_at",
	// "label", "-label". Empty means "-balance".
	Ordering string
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	// Create inserts a transaction row. The txid uniqueness constraint is
	// enforced at write time by the store; on conflict it returns TXN_001.
	// Never pre-check existence: check-then-insert races with other writers.
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetActiveByTxID returns nil, nil when no active transaction carries txid.
	GetActiveByTxID(ctx context.Context, txid string) (*domain.Transaction, error)
	// ListByWalletIDs returns all transactions of the given wallets ordered by
	// creation time ascending, active and inactive alike. Unknown wallet ids
	// contribute no rows.
	ListByWalletIDs(ctx context.Context, walletIDs []uuid.UUID) ([]domain.Transaction, error)
	// DeactivateByWallet flips every active transaction of the wallet to
	// inactive with the given timestamp, returning the number of rows touched.
	DeactivateByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) (int64, error)
}

// DBTransactor provides database transaction management. Begin returns a
// transaction with the ledger lock timeout already applied.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
