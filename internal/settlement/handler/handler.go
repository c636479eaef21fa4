package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aurum/internal/settlement/models"
	"aurum/internal/settlement/service"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// Service defines the interface for settlement operations.
type Service interface {
	PrepareOrder(ctx context.Context, p models.PrepareParams) (*models.Order, error)
	SignOrder(ctx context.Context, txRef id.OrderRef, signature []byte, party string) (*models.Order, error)
	ExecuteOrder(ctx context.Context, txRef id.OrderRef) (*models.Order, error)
	CancelOrder(ctx context.Context, txRef id.OrderRef, reason string) (*models.Order, error)
	GetOrder(ctx context.Context, txRef id.OrderRef) (*models.Order, error)
	SetExecutionOptions(ctx context.Context, opts service.ExecutionOptions) error
}

// Handler handles settlement endpoints.
type Handler struct {
	logger     *slog.Logger
	settlement Service
}

func New(settlement Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, settlement: settlement}
}

// Register registers the settlement routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.handlePrepare)
	r.Get("/orders/{txRef}", h.handleGetOrder)
	r.Post("/orders/{txRef}/sign", h.handleSign)
	r.Post("/orders/{txRef}/execute", h.handleExecute)
	r.Post("/orders/{txRef}/cancel", h.handleCancel)
	r.Put("/options", h.handleSetOptions)
}

type prepareOrderRequest struct {
	ExternalRef     string   `json:"external_ref"`
	TxRef           string   `json:"tx_ref"`
	Type            string   `json:"type"`
	InitiatorID     string   `json:"initiator_id"`
	CounterpartyID  string   `json:"counterparty_id"`
	Counterparty    string   `json:"counterparty"`
	SourceAccountID string   `json:"source_account_id"`
	DestAccountID   string   `json:"dest_account_id"`
	TokenIDs        []string `json:"token_ids"`
	RequestedAssets []string `json:"requested_assets"`
	SettlementDate  string   `json:"settlement_date"`
	Currency        string   `json:"currency"`
	Price           int64    `json:"price"`
	Fee             int64    `json:"fee"`
	Metadata        string   `json:"metadata"`
}

func (h *Handler) handlePrepare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[prepareOrderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sourceID, err := id.ParseAccountID(req.SourceAccountID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}
	destID, err := id.ParseAccountID(req.DestAccountID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}
	tokenIDs := make([]id.TokenID, 0, len(req.TokenIDs))
	for _, t := range req.TokenIDs {
		tokenIDs = append(tokenIDs, id.TokenID(t))
	}

	order, err := h.settlement.PrepareOrder(ctx, models.PrepareParams{
		ExternalRef:     req.ExternalRef,
		TxRef:           id.OrderRef(req.TxRef),
		Type:            req.Type,
		InitiatorID:     id.MemberID(req.InitiatorID),
		CounterpartyID:  id.MemberID(req.CounterpartyID),
		Counterparty:    id.Address(req.Counterparty),
		SourceAccountID: sourceID,
		DestAccountID:   destID,
		TokenIDs:        tokenIDs,
		RequestedAssets: req.RequestedAssets,
		SettlementDate:  req.SettlementDate,
		Currency:        req.Currency,
		Price:           req.Price,
		Fee:             req.Fee,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "order prepare failed",
			"request_id", requestcontext.RequestID(ctx),
			"tx_ref", req.TxRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

type signOrderRequest struct {
	Signature string `json:"signature"`
	Party     string `json:"party"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txRef := id.OrderRef(chi.URLParam(r, "txRef"))
	req, ok := httputil.DecodeAndPrepare[signOrderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "signature must be base64"))
		return
	}

	order, err := h.settlement.SignOrder(ctx, txRef, signature, req.Party)
	if err != nil {
		h.logger.WarnContext(ctx, "order sign failed",
			"request_id", requestcontext.RequestID(ctx),
			"tx_ref", txRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txRef := id.OrderRef(chi.URLParam(r, "txRef"))

	order, err := h.settlement.ExecuteOrder(ctx, txRef)
	if err != nil {
		h.logger.WarnContext(ctx, "order execute failed",
			"request_id", requestcontext.RequestID(ctx),
			"tx_ref", txRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txRef := id.OrderRef(chi.URLParam(r, "txRef"))
	req, ok := httputil.DecodeAndPrepare[cancelOrderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	order, err := h.settlement.CancelOrder(ctx, txRef, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

type executionOptionsRequest struct {
	OnChainTransfer  bool `json:"on_chain_transfer"`
	AutoLedgerUpdate bool `json:"auto_ledger_update"`
}

func (h *Handler) handleSetOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[executionOptionsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	err := h.settlement.SetExecutionOptions(ctx, service.ExecutionOptions{
		OnChainTransfer:  req.OnChainTransfer,
		AutoLedgerUpdate: req.AutoLedgerUpdate,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.settlement.GetOrder(ctx, id.OrderRef(chi.URLParam(r, "txRef")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}
