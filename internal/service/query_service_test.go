package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type queryTestDeps struct {
	svc        *QueryServiceImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	ctrl       *gomock.Controller
}

func setupQueryService(t *testing.T) *queryTestDeps {
	ctrl := gomock.NewController(t)
	d := &queryTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewQueryService(d.walletRepo, d.txRepo)
	return d
}

func TestQueryService_GetWallet_Success(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := activeWallet("42")
	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)

	result, err := d.svc.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, result.ID)
}

func TestQueryService_GetWallet_NotFound(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	result, err := d.svc.GetWallet(ctx, id)
	assert.Nil(t, result)
	assertAppError(t, err, "WAL_001")
}

func TestQueryService_ListWallets_PassesFilter(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	isActive := true
	filter := ports.WalletFilter{IsActive: &isActive, Ordering: "-balance"}

	d.walletRepo.EXPECT().List(ctx, filter).Return([]domain.Wallet{*activeWallet("10")}, nil)

	wallets, err := d.svc.ListWallets(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, wallets, 1)
}

func TestQueryService_SearchTransactions_EmptyInput(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	// No repository call expected for an empty id set.
	txns, err := d.svc.SearchTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, txns)
	assert.Empty(t, txns)
}

func TestQueryService_SearchTransactions_IncludesDeactivated(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	now := time.Now().UTC()

	d.txRepo.EXPECT().ListByWalletIDs(ctx, []uuid.UUID{walletID}).Return([]domain.Transaction{
		{ID: uuid.New(), WalletID: walletID, TxID: "tx_a", Amount: decimal.NewFromInt(100), IsActive: true, CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), WalletID: walletID, TxID: "tx_b", Amount: decimal.NewFromInt(-30), IsActive: false, CreatedAt: now},
	}, nil)

	txns, err := d.svc.SearchTransactions(ctx, []uuid.UUID{walletID})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.True(t, txns[0].CreatedAt.Before(txns[1].CreatedAt))
	assert.False(t, txns[1].IsActive)
}

func TestQueryService_SearchTransactions_UnknownIDsContributeNothing(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	unknown := uuid.New()

	d.txRepo.EXPECT().ListByWalletIDs(ctx, []uuid.UUID{unknown}).Return(nil, nil)

	txns, err := d.svc.SearchTransactions(ctx, []uuid.UUID{unknown})
	require.NoError(t, err)
	assert.NotNil(t, txns)
	assert.Empty(t, txns)
}

func TestQueryService_SearchTransactions_StorageError(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.txRepo.EXPECT().ListByWalletIDs(ctx, []uuid.UUID{walletID}).Return(nil, errors.New("connection reset"))

	txns, err := d.svc.SearchTransactions(ctx, []uuid.UUID{walletID})
	assert.Nil(t, txns)
	assertAppError(t, err, "SYS_001")
}

func TestQueryService_GetTransactionByTxID_Success(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := &domain.Transaction{
		ID:       uuid.New(),
		WalletID: uuid.New(),
		TxID:     "tx_001",
		Amount:   decimal.NewFromInt(100),
		IsActive: true,
	}
	d.txRepo.EXPECT().GetActiveByTxID(ctx, "tx_001").Return(txn, nil)

	result, err := d.svc.GetTransactionByTxID(ctx, "tx_001")
	require.NoError(t, err)
	assert.Equal(t, txn.ID, result.ID)
}

func TestQueryService_GetTransactionByTxID_NotFound(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetActiveByTxID(ctx, "tx_missing").Return(nil, nil)

	result, err := d.svc.GetTransactionByTxID(ctx, "tx_missing")
	assert.Nil(t, result)
	assertAppError(t, err, "TXN_004")
}

func TestQueryService_GetTransactionByTxID_EmptyTxID(t *testing.T) {
	d := setupQueryService(t)
	defer d.ctrl.Finish()

	result, err := d.svc.GetTransactionByTxID(context.Background(), "   ")
	assert.Nil(t, result)
	assertAppError(t, err, "TXN_002")
}
