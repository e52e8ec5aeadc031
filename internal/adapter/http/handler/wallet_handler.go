package handler

import (
	"strings"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
	querySvc  ports.LedgerQueryService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, querySvc ports.LedgerQueryService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, querySvc: querySvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.NormalizeStruct(&req)

	svcReq := ports.CreateWalletRequest{Label: req.Label}
	if req.InitialBalance != nil {
		amount, err := decimal.NewFromString(*req.InitialBalance)
		if err != nil {
			response.Error(c, apperror.ErrInvalidAmount("initial_balance must be a decimal number"))
			return
		}
		svcReq.InitialBalance = &amount
		if req.TxID != nil && *req.TxID != "" {
			svcReq.InitialTxID = *req.TxID
		} else {
			svcReq.InitialTxID = newTxID()
		}
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.querySvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// ListWallets handles GET /api/v1/wallets.
// Supported query params: is_active=true|false, ids=<comma separated uuids>,
// ordering=balance|-balance|created_at|-created_at|label|-label.
func (h *WalletHandler) ListWallets(c *gin.Context) {
	var filter ports.WalletFilter

	if raw, ok := c.GetQuery("is_active"); ok {
		switch raw {
		case "true":
			v := true
			filter.IsActive = &v
		case "false":
			v := false
			filter.IsActive = &v
		default:
			response.Error(c, apperror.Validation("is_active must be true or false"))
			return
		}
	}

	if raw, ok := c.GetQuery("ids"); ok && raw != "" {
		ids, err := parseUUIDList(raw)
		if err != nil {
			response.Error(c, apperror.Validation("ids must be a comma separated list of uuids"))
			return
		}
		filter.WalletIDs = ids
	}

	filter.Ordering = c.Query("ordering")

	wallets, err := h.querySvc.ListWallets(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := dto.FromWallets(wallets)
	response.OK(c, dto.WalletListResponse{Items: items, Total: len(items)})
}

// UpdateLabel handles PATCH /api/v1/wallets/:id/label.
func (h *WalletHandler) UpdateLabel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.ledgerSvc.UpdateLabel(c.Request.Context(), id, req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// DeactivateWallet handles POST /api/v1/wallets/:id/deactivate.
func (h *WalletHandler) DeactivateWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.ledgerSvc.DeactivateWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// parseUUIDList splits a comma separated uuid list, skipping empty segments.
func parseUUIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
