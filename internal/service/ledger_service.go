package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// Every mutation follows the same shape: begin a database transaction, lock
// the wallet row, validate, write, commit. The row lock is the only
// serialization mechanism; operations on different wallets never block each
// other. On any reported error durable state is unchanged (the deferred
// rollback undoes everything).
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		log:        log,
	}
}

// CreateWallet creates an active wallet with zero balance. An optional
// initial balance is recorded as a real first transaction so that the
// balance-equals-sum-of-transactions invariant holds from the start.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	wallet, err := domain.NewWallet(req.Label)
	if err != nil {
		return nil, apperror.ErrInvalidLabel(err.Error())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(err, "begin tx")
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, storageError(err, "create wallet")
	}

	if req.InitialBalance != nil {
		if req.InitialBalance.IsNegative() {
			return nil, apperror.ErrInsufficientBalance()
		}
		txn, err := domain.NewTransaction(wallet.ID, req.InitialTxID, *req.InitialBalance)
		if err != nil {
			return nil, mapDomainError(err)
		}
		if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
			return nil, storageError(err, "create initial transaction")
		}
		wallet.Balance = *req.InitialBalance
		wallet.UpdatedAt = txn.CreatedAt
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance, wallet.UpdatedAt); err != nil {
			return nil, storageError(err, "set initial balance")
		}
	}

	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, storageError(err, "commit tx")
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("label", wallet.Label).
		Str("balance", wallet.Balance.String()).
		Msg("wallet created")

	return wallet, nil
}

// ApplyTransaction records a transaction and moves the wallet balance as one
// atomic unit. Duplicate txid detection happens at insert time via the
// store's uniqueness constraint; the first insert to land wins and every
// concurrent duplicate fails with TXN_001 before any balance effect.
func (s *LedgerServiceImpl) ApplyTransaction(ctx context.Context, req ports.ApplyTransactionRequest) (*domain.Transaction, error) {
	txn, err := domain.NewTransaction(req.WalletID, req.TxID, req.Amount)
	if err != nil {
		return nil, mapDomainError(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(err, "begin tx")
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get wallet
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, storageError(err, "lock wallet")
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if wallet.IsDeactivated() {
		return nil, apperror.ErrWalletInactive()
	}

	// Insert first: the unique index on txid is the single deterministic
	// winner rule for concurrent duplicate submissions.
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storageError(err, "create transaction")
	}

	newBalance := wallet.Balance.Add(txn.Amount)
	if txn.IsDebit() && newBalance.IsNegative() {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance, txn.CreatedAt); err != nil {
		return nil, storageError(err, "update balance")
	}

	// A cancellation arriving once the commit has begun is not honored:
	// the commit runs to completion so no partial state is observable.
	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, storageError(err, "commit tx")
	}

	direction := "debit"
	if txn.IsCredit() {
		direction = "credit"
	}
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("txid", txn.TxID).
		Str("wallet_id", wallet.ID.String()).
		Str("amount", txn.Amount.String()).
		Str("direction", direction).
		Str("balance", newBalance.String()).
		Msg("transaction applied")

	return txn, nil
}

// DeactivateWallet deactivates the wallet and cascades to every active
// transaction with the identical timestamp, as one atomic unit. Deactivating
// an already inactive wallet is an idempotent success.
func (s *LedgerServiceImpl) DeactivateWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(err, "begin tx")
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, storageError(err, "lock wallet")
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if wallet.IsDeactivated() {
		// Retried request; nothing to do.
		return wallet, nil
	}

	now := time.Now().UTC()
	if err := s.walletRepo.Deactivate(ctx, dbTx, walletID, now); err != nil {
		return nil, storageError(err, "deactivate wallet")
	}
	cascaded, err := s.txRepo.DeactivateByWallet(ctx, dbTx, walletID, now)
	if err != nil {
		return nil, storageError(err, "cascade deactivation")
	}

	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, storageError(err, "commit tx")
	}

	wallet.Deactivate(now)

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Int64("transactions_deactivated", cascaded).
		Time("deactivated_at", now).
		Msg("wallet deactivated")

	return wallet, nil
}

// UpdateLabel renames the wallet. Renaming is permitted on deactivated
// wallets; history stays editable in name only.
func (s *LedgerServiceImpl) UpdateLabel(ctx context.Context, walletID uuid.UUID, newLabel string) (*domain.Wallet, error) {
	clean, err := domain.ValidateLabel(newLabel)
	if err != nil {
		return nil, apperror.ErrInvalidLabel(err.Error())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(err, "begin tx")
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, walletID)
	if err != nil {
		return nil, storageError(err, "lock wallet")
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	now := time.Now().UTC()
	if err := s.walletRepo.UpdateLabel(ctx, dbTx, walletID, clean, now); err != nil {
		return nil, storageError(err, "update label")
	}

	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, storageError(err, "commit tx")
	}

	wallet.Label = clean
	wallet.UpdatedAt = now

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("label", clean).
		Msg("wallet label updated")

	return wallet, nil
}

// storageError passes typed failures from the storage layer through unchanged
// (duplicate txid, lock timeout) and wraps everything else as SYS_001.
func storageError(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.ErrDatabaseError(fmt.Errorf("%s: %w", op, err))
}

// mapDomainError translates entity validation failures into typed failures.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyLabel), errors.Is(err, domain.ErrLabelTooLong):
		return apperror.ErrInvalidLabel(err.Error())
	case errors.Is(err, domain.ErrZeroAmount):
		return apperror.ErrInvalidAmount(err.Error())
	case errors.Is(err, domain.ErrEmptyTxID), errors.Is(err, domain.ErrTxIDTooLong):
		return apperror.Validation(err.Error())
	default:
		return apperror.InternalError(err)
	}
}
