package service

import (
	"context"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// QueryServiceImpl implements ports.LedgerQueryService.
//
// Reads never acquire the per-wallet lock: they may observe a wallet either
// fully before or fully after a mutation commits, never in between.
type QueryServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(walletRepo ports.WalletRepository, txRepo ports.TransactionRepository) *QueryServiceImpl {
	return &QueryServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

// GetWallet fetches a single wallet by id.
func (s *QueryServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, storageError(err, "get wallet")
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// ListWallets lists wallets with optional active-state, id-set and ordering
// filters.
func (s *QueryServiceImpl) ListWallets(ctx context.Context, filter ports.WalletFilter) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "list wallets")
	}
	return wallets, nil
}

// SearchTransactions returns the transactions of every wallet in the input
// set, ordered by creation time ascending. Deactivated history is included;
// callers decide how to interpret it. Unknown wallet ids contribute no rows.
func (s *QueryServiceImpl) SearchTransactions(ctx context.Context, walletIDs []uuid.UUID) ([]domain.Transaction, error) {
	if len(walletIDs) == 0 {
		return []domain.Transaction{}, nil
	}
	txns, err := s.txRepo.ListByWalletIDs(ctx, walletIDs)
	if err != nil {
		return nil, storageError(err, "search transactions")
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

// GetTransactionByTxID looks up an active transaction by its external id.
func (s *QueryServiceImpl) GetTransactionByTxID(ctx context.Context, txid string) (*domain.Transaction, error) {
	clean, err := domain.ValidateTxID(txid)
	if err != nil {
		return nil, mapDomainError(err)
	}
	txn, err := s.txRepo.GetActiveByTxID(ctx, clean)
	if err != nil {
		return nil, storageError(err, "get transaction by txid")
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return txn, nil
}
