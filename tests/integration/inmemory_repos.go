package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// The in-memory storage layer mirrors the PostgreSQL adapter's contract:
// per-wallet exclusive locks with a bounded wait, write-time txid uniqueness,
// and all-or-nothing transactions. Repos journal undo actions on the memTx;
// Rollback replays them in reverse, Commit discards them. Both release the
// wallet locks the transaction acquired.

// --- Lock manager ---

type lockManager struct {
	mu    sync.Mutex
	locks map[uuid.UUID]chan struct{}
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[uuid.UUID]chan struct{})}
}

func (m *lockManager) semaphore(id uuid.UUID) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.locks[id]
	if !ok {
		sem = make(chan struct{}, 1)
		m.locks[id] = sem
	}
	return sem
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct {
	locks       *lockManager
	lockTimeout time.Duration
}

func newInMemoryTransactor(lockTimeout time.Duration) *inMemoryTransactor {
	return &inMemoryTransactor{locks: newLockManager(), lockTimeout: lockTimeout}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{locks: t.locks, lockTimeout: t.lockTimeout}, nil
}

// memTx is an in-memory pgx.Tx carrying held locks and an undo journal.
type memTx struct {
	noopTx
	locks       *lockManager
	lockTimeout time.Duration

	mu   sync.Mutex
	held []uuid.UUID
	undo []func()
	done bool
}

// acquire takes the wallet's exclusive lock, waiting at most lockTimeout.
// A cancelled caller never gets the lock.
func (t *memTx) acquire(ctx context.Context, walletID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return apperror.ErrLockTimeout(err)
	}

	t.mu.Lock()
	for _, id := range t.held {
		if id == walletID {
			t.mu.Unlock()
			return nil
		}
	}
	t.mu.Unlock()

	sem := t.locks.semaphore(walletID)
	timer := time.NewTimer(t.lockTimeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		// The select may pick the semaphore even when ctx is already done.
		if err := ctx.Err(); err != nil {
			<-sem
			return apperror.ErrLockTimeout(err)
		}
		t.mu.Lock()
		t.held = append(t.held, walletID)
		t.mu.Unlock()
		return nil
	case <-timer.C:
		return apperror.ErrLockTimeout(errors.New("lock wait exceeded"))
	case <-ctx.Done():
		return apperror.ErrLockTimeout(ctx.Err())
	}
}

// journal registers an undo action to run on rollback.
func (t *memTx) journal(undo func()) {
	t.mu.Lock()
	t.undo = append(t.undo, undo)
	t.mu.Unlock()
}

func (t *memTx) finish(rollback bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	if rollback {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
	}
	t.undo = nil
	for _, id := range t.held {
		<-t.locks.semaphore(id)
	}
	t.held = nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.finish(false)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.finish(true)
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := w.ID
	r.wallets[id] = *w
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.wallets, id)
	})
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	_, exists := r.wallets[id]
	r.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	if err := asMemTx(tx).acquire(ctx, id); err != nil {
		return nil, err
	}

	// Re-read under the lock; the row may have changed while waiting.
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *inMemoryWalletRepo) List(ctx context.Context, filter ports.WalletFilter) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Wallet
	for _, w := range r.wallets {
		if filter.IsActive != nil && w.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.WalletIDs) > 0 && !containsID(filter.WalletIDs, w.ID) {
			continue
		}
		result = append(result, w)
	}

	sortWallets(result, filter.Ordering)
	return result, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	prev := w
	w.Balance = balance
	w.UpdatedAt = updatedAt
	r.wallets[walletID] = w
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.wallets[walletID] = prev
	})
	return nil
}

func (r *inMemoryWalletRepo) UpdateLabel(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, label string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	prev := w
	w.Label = label
	w.UpdatedAt = updatedAt
	r.wallets[walletID] = w
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.wallets[walletID] = prev
	})
	return nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	if !w.IsActive {
		return nil
	}
	prev := w
	w.IsActive = false
	w.DeactivatedAt = &at
	w.UpdatedAt = at
	r.wallets[walletID] = w
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.wallets[walletID] = prev
	})
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]domain.Transaction
	byTxID       map[string]uuid.UUID
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		transactions: make(map[uuid.UUID]domain.Transaction),
		byTxID:       make(map[string]uuid.UUID),
	}
}

// Create enforces txid uniqueness at write time, mirroring the database's
// unique index: under the repo mutex exactly one concurrent insert of a txid
// can win, wallet lock or not.
func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTxID[t.TxID]; exists {
		return apperror.ErrDuplicateTxID()
	}
	id, txid := t.ID, t.TxID
	r.transactions[id] = *t
	r.byTxID[txid] = id
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.transactions, id)
		delete(r.byTxID, txid)
	})
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *inMemoryTransactionRepo) GetActiveByTxID(ctx context.Context, txid string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTxID[txid]
	if !ok {
		return nil, nil
	}
	t := r.transactions[id]
	if !t.IsActive {
		return nil, nil
	}
	return &t, nil
}

func (r *inMemoryTransactionRepo) ListByWalletIDs(ctx context.Context, walletIDs []uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Transaction
	for _, t := range r.transactions {
		if containsID(walletIDs, t.WalletID) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryTransactionRepo) DeactivateByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var touched []domain.Transaction
	var count int64
	for id, t := range r.transactions {
		if t.WalletID != walletID || !t.IsActive {
			continue
		}
		touched = append(touched, t)
		t.IsActive = false
		t.DeactivatedAt = &at
		t.UpdatedAt = at
		r.transactions[id] = t
		count++
	}
	asMemTx(tx).journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, prev := range touched {
			r.transactions[prev.ID] = prev
		}
	})
	return count, nil
}

// --- Helpers ---

func asMemTx(tx pgx.Tx) *memTx {
	m, ok := tx.(*memTx)
	if !ok {
		panic("in-memory repos require a memTx")
	}
	return m
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sortWallets(wallets []domain.Wallet, ordering string) {
	sort.Slice(wallets, func(i, j int) bool {
		a, b := wallets[i], wallets[j]
		switch ordering {
		case "balance":
			return a.Balance.LessThan(b.Balance)
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "-created_at":
			return b.CreatedAt.Before(a.CreatedAt)
		case "label":
			return a.Label < b.Label
		case "-label":
			return b.Label < a.Label
		default: // "-balance"
			return b.Balance.LessThan(a.Balance)
		}
	})
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
