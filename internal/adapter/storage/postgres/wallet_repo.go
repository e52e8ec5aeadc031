package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet within a database transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, label, balance, is_active, deactivated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.Label, w.Balance, w.IsActive,
		w.DeactivatedAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, label, balance, is_active, deactivated_at, created_at, updated_at
		FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction. The lock wait is bounded by the
// transactor's lock_timeout; on expiry it reports SYS_002.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, label, balance, is_active, deactivated_at, created_at, updated_at
		FROM wallets WHERE id = $1 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Label, &w.Balance, &w.IsActive,
		&w.DeactivatedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockTimeout(err) {
			return nil, apperror.ErrLockTimeout(err)
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// List fetches wallets with optional active-state and id-set filters.
func (r *WalletRepo) List(ctx context.Context, filter ports.WalletFilter) ([]domain.Wallet, error) {
	query := `SELECT id, label, balance, is_active, deactivated_at, created_at, updated_at FROM wallets`

	var args []any
	argIdx := 1

	if filter.IsActive != nil {
		query += fmt.Sprintf(" WHERE is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if len(filter.WalletIDs) > 0 {
		if argIdx == 1 {
			query += " WHERE"
		} else {
			query += " AND"
		}
		query += fmt.Sprintf(" id = ANY($%d)", argIdx)
		args = append(args, filter.WalletIDs)
	}

	query += " ORDER BY " + orderingClause(filter.Ordering)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w := domain.Wallet{}
		err := rows.Scan(
			&w.ID, &w.Label, &w.Balance, &w.IsActive,
			&w.DeactivatedAt, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// UpdateBalance updates a wallet's balance within a database transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, balance, updatedAt, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// UpdateLabel updates a wallet's label within a database transaction.
func (r *WalletRepo) UpdateLabel(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, label string, updatedAt time.Time) error {
	query := `UPDATE wallets SET label = $1, updated_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, label, updatedAt, walletID)
	if err != nil {
		return fmt.Errorf("update wallet label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// Deactivate flips the wallet inactive within a database transaction.
// The WHERE guard keeps deactivation terminal even under a retried request.
func (r *WalletRepo) Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) error {
	query := `UPDATE wallets SET is_active = FALSE, deactivated_at = $1, updated_at = $1
		WHERE id = $2 AND is_active = TRUE`

	if _, err := tx.Exec(ctx, query, at, walletID); err != nil {
		return fmt.Errorf("deactivate wallet: %w", err)
	}
	return nil
}

// orderingClause maps an API ordering token to a safe ORDER BY expression.
func orderingClause(ordering string) string {
	switch ordering {
	case "balance":
		return "balance ASC"
	case "created_at":
		return "created_at ASC"
	case "-created_at":
		return "created_at DESC"
	case "label":
		return "label ASC"
	case "-label":
		return "label DESC"
	default:
		return "balance DESC"
	}
}

// scanWallet is a helper to scan a single row into a Wallet.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.Label, &w.Balance, &w.IsActive,
		&w.DeactivatedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
