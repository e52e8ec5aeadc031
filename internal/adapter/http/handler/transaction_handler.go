package handler

import (
	"encoding/hex"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
	querySvc  ports.LedgerQueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, querySvc ports.LedgerQueryService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, querySvc: querySvc}
}

// ApplyTransaction handles POST /api/v1/transactions.
func (h *TransactionHandler) ApplyTransaction(c *gin.Context) {
	var req dto.ApplyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.NormalizeStruct(&req)

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount("amount must be a decimal number"))
		return
	}

	txid := ""
	if req.TxID != nil {
		txid = *req.TxID
	}
	if txid == "" {
		txid = newTxID()
	}

	txn, err := h.ledgerSvc.ApplyTransaction(c.Request.Context(), ports.ApplyTransactionRequest{
		WalletID: walletID,
		TxID:     txid,
		Amount:   amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// SearchTransactions handles GET /api/v1/transactions?wallet_ids=<csv>.
// Deactivated transactions are included; unknown wallet ids yield no rows.
func (h *TransactionHandler) SearchTransactions(c *gin.Context) {
	raw, ok := c.GetQuery("wallet_ids")
	if !ok {
		response.Error(c, apperror.Validation("wallet_ids query parameter is required"))
		return
	}

	ids, err := parseUUIDList(raw)
	if err != nil {
		response.Error(c, apperror.Validation("wallet_ids must be a comma separated list of uuids"))
		return
	}

	txns, err := h.querySvc.SearchTransactions(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := dto.FromTransactions(txns)
	response.OK(c, dto.TransactionListResponse{Items: items, Total: len(items)})
}

// GetTransaction handles GET /api/v1/transactions/:txid.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txid := c.Param("txid")
	if txid == "" {
		response.Error(c, apperror.Validation("txid is required"))
		return
	}

	txn, err := h.querySvc.GetTransactionByTxID(c.Request.Context(), txid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// newTxID generates a server-side transaction id for requests that omit one.
func newTxID() string {
	u := uuid.New()
	return "tx_" + hex.EncodeToString(u[:])[:16]
}
