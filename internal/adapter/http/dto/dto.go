package dto

import (
	"time"

	"wallet-ledger/internal/core/domain"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Label          string  `json:"label" binding:"required,max=255"`
	InitialBalance *string `json:"initial_balance,omitempty"`
	TxID           *string `json:"txid,omitempty" binding:"omitempty,max=255"`
}

// UpdateLabelRequest is the request body for relabeling a wallet.
type UpdateLabelRequest struct {
	Label string `json:"label" binding:"required,max=255"`
}

// ApplyTransactionRequest is the request body for posting a transaction.
// TxID is optional; the server generates one when it is absent.
type ApplyTransactionRequest struct {
	WalletID string  `json:"wallet_id" binding:"required,uuid"`
	TxID     *string `json:"txid,omitempty" binding:"omitempty,max=255"`
	Amount   string  `json:"amount" binding:"required"`
}

// WalletResponse is the response body for a single wallet.
type WalletResponse struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Balance       string  `json:"balance"`
	IsActive      bool    `json:"is_active"`
	DeactivatedAt *string `json:"deactivated_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// TransactionResponse is the response body for a single transaction.
type TransactionResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet_id"`
	TxID      string `json:"txid"`
	Amount    string `json:"amount"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// WalletListResponse wraps a wallet listing.
type WalletListResponse struct {
	Items []WalletResponse `json:"items"`
	Total int              `json:"total"`
}

// TransactionListResponse wraps a transaction listing.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}

// FromWallet maps a domain wallet to its response shape.
func FromWallet(w *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:        w.ID.String(),
		Label:     w.Label,
		Balance:   w.Balance.String(),
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339Nano),
	}
	if w.DeactivatedAt != nil {
		s := w.DeactivatedAt.Format(time.RFC3339Nano)
		resp.DeactivatedAt = &s
	}
	return resp
}

// FromWallets maps a domain wallet slice; never returns nil.
func FromWallets(wallets []domain.Wallet) []WalletResponse {
	items := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, FromWallet(&wallets[i]))
	}
	return items
}

// FromTransaction maps a domain transaction to its response shape.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID.String(),
		WalletID:  t.WalletID.String(),
		TxID:      t.TxID,
		Amount:    t.Amount.String(),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339Nano),
	}
}

// FromTransactions maps a domain transaction slice; never returns nil.
func FromTransactions(txns []domain.Transaction) []TransactionResponse {
	items := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, FromTransaction(&txns[i]))
	}
	return items
}
