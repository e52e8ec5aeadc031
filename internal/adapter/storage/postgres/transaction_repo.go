package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
// The unique index on txid enforces global uniqueness at write time; a
// conflicting insert reports TXN_001. There is deliberately no existence
// pre-check: check-then-insert would race with concurrent writers.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, txid, amount, is_active, deactivated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.TxID, t.Amount,
		t.IsActive, t.DeactivatedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateTxID()
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, txid, amount, is_active, deactivated_at, created_at, updated_at
		FROM transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetActiveByTxID fetches an active transaction by its external id.
func (r *TransactionRepo) GetActiveByTxID(ctx context.Context, txid string) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, txid, amount, is_active, deactivated_at, created_at, updated_at
		FROM transactions WHERE txid = $1 AND is_active = TRUE`

	return scanTransaction(r.pool.QueryRow(ctx, query, txid))
}

// ListByWalletIDs fetches all transactions of the given wallets, ordered by
// creation time ascending. Wallet ids without rows contribute nothing.
func (r *TransactionRepo) ListByWalletIDs(ctx context.Context, walletIDs []uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, txid, amount, is_active, deactivated_at, created_at, updated_at
		FROM transactions WHERE wallet_id = ANY($1) ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, walletIDs)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.WalletID, &t.TxID, &t.Amount,
			&t.IsActive, &t.DeactivatedAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// DeactivateByWallet flips every active transaction of the wallet inactive
// with the given timestamp, within a database transaction. Returns the
// number of transactions touched.
func (r *TransactionRepo) DeactivateByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) (int64, error) {
	query := `UPDATE transactions SET is_active = FALSE, deactivated_at = $1, updated_at = $1
		WHERE wallet_id = $2 AND is_active = TRUE`

	tag, err := tx.Exec(ctx, query, at, walletID)
	if err != nil {
		return 0, fmt.Errorf("deactivate transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.WalletID, &t.TxID, &t.Amount,
		&t.IsActive, &t.DeactivatedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
