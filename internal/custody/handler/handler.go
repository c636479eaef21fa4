package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// Service defines the interface for custody operations.
type Service interface {
	Mint(ctx context.Context, p models.MintParams) (*models.Asset, error)
	Burn(ctx context.Context, tokenID id.TokenID, accountID id.AccountID, reason string) (*models.Asset, error)
	UpdateStatus(ctx context.Context, tokenID id.TokenID, status models.Status, reason string) (*models.Asset, error)
	UpdateCustodyBatch(ctx context.Context, tokenIDs []id.TokenID, newCustodian id.Address, method string) error
	Transfer(ctx context.Context, from, to id.Address, tokenID id.TokenID) (*models.Asset, error)
	ForceTransfer(ctx context.Context, tokenID id.TokenID, from, to id.Address, reason string) (*models.Asset, error)
	VerifyCertificate(ctx context.Context, tokenID id.TokenID, hash string) (bool, error)
	IsAssetLocked(ctx context.Context, tokenID id.TokenID) (bool, error)
	GetAsset(ctx context.Context, tokenID id.TokenID) (*models.Asset, error)
	TokensByOwner(ctx context.Context, owner id.Address) ([]*models.Asset, error)
}

// Handler handles custody endpoints.
type Handler struct {
	logger  *slog.Logger
	custody Service
}

func New(custody Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, custody: custody}
}

// Register registers the custody routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tokens", h.handleMint)
	r.Get("/tokens/{tokenID}", h.handleGetToken)
	r.Delete("/tokens/{tokenID}", h.handleBurn)
	r.Put("/tokens/{tokenID}/status", h.handleUpdateStatus)
	r.Post("/tokens/{tokenID}/transfer", h.handleTransfer)
	r.Post("/tokens/{tokenID}/force-transfer", h.handleForceTransfer)
	r.Post("/tokens/{tokenID}/verify", h.handleVerifyCertificate)
	r.Get("/tokens/{tokenID}/locked", h.handleIsLocked)
	r.Post("/custody/batch", h.handleCustodyBatch)
	r.Get("/owners/{address}/tokens", h.handleTokensByOwner)
}

type mintRequest struct {
	Owner       string `json:"owner"`
	AccountID   string `json:"account_id"`
	Serial      string `json:"serial"`
	Refiner     string `json:"refiner"`
	WeightGrams int64  `json:"weight_grams"`
	Fineness    int64  `json:"fineness"`
	ProductType string `json:"product_type"`
	CertHash    string `json:"cert_hash"`
	MemberID    string `json:"member_id"`
	Certified   bool   `json:"certified"`
	WarrantID   string `json:"warrant_id"`
}

type assetResponse struct {
	TokenID       string    `json:"token_id"`
	Owner         string    `json:"owner"`
	MintAccountID string    `json:"mint_account_id"`
	Serial        string    `json:"serial"`
	Refiner       string    `json:"refiner"`
	WeightGrams   int64     `json:"weight_grams"`
	Fineness      int64     `json:"fineness"`
	FineWeight    int64     `json:"fine_weight"`
	ProductType   string    `json:"product_type"`
	CertHash      string    `json:"cert_hash"`
	MemberID      string    `json:"member_id"`
	Certified     bool      `json:"certified"`
	WarrantID     string    `json:"warrant_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		TokenID:       a.ID.String(),
		Owner:         a.Owner.String(),
		MintAccountID: a.MintAccountID.String(),
		Serial:        a.Serial,
		Refiner:       a.Refiner,
		WeightGrams:   a.WeightGrams,
		Fineness:      a.Fineness,
		FineWeight:    a.FineWeight,
		ProductType:   a.ProductType,
		CertHash:      a.CertHash,
		MemberID:      a.MemberID.String(),
		Certified:     a.Certified,
		WarrantID:     string(a.WarrantID),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[mintRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}

	asset, err := h.custody.Mint(ctx, models.MintParams{
		Owner:       id.Address(req.Owner),
		AccountID:   accountID,
		Serial:      req.Serial,
		Refiner:     req.Refiner,
		WeightGrams: req.WeightGrams,
		Fineness:    req.Fineness,
		ProductType: req.ProductType,
		CertHash:    req.CertHash,
		MemberID:    id.MemberID(req.MemberID),
		Certified:   req.Certified,
		WarrantID:   id.WarrantID(req.WarrantID),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "mint failed",
			"request_id", requestcontext.RequestID(ctx),
			"serial", req.Serial,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssetResponse(asset))
}

type burnRequest struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	req, ok := httputil.DecodeAndPrepare[burnRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	var accountID id.AccountID
	if req.AccountID != "" {
		parsed, err := id.ParseAccountID(req.AccountID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
			return
		}
		accountID = parsed
	}

	asset, err := h.custody.Burn(ctx, tokenID, accountID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "burn failed",
			"request_id", requestcontext.RequestID(ctx),
			"token", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	req, ok := httputil.DecodeAndPrepare[updateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.custody.UpdateStatus(ctx, tokenID, status, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

type transferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	req, ok := httputil.DecodeAndPrepare[transferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	asset, err := h.custody.Transfer(ctx, id.Address(req.From), id.Address(req.To), tokenID)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer failed",
			"request_id", requestcontext.RequestID(ctx),
			"token", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

type forceTransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

func (h *Handler) handleForceTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	req, ok := httputil.DecodeAndPrepare[forceTransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	asset, err := h.custody.ForceTransfer(ctx, tokenID, id.Address(req.From), id.Address(req.To), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

type custodyBatchRequest struct {
	TokenIDs  []string `json:"token_ids"`
	Custodian string   `json:"custodian"`
	Method    string   `json:"method"`
}

func (h *Handler) handleCustodyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[custodyBatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if len(req.TokenIDs) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token_ids is required"))
		return
	}
	tokenIDs := make([]id.TokenID, 0, len(req.TokenIDs))
	for _, t := range req.TokenIDs {
		tokenIDs = append(tokenIDs, id.TokenID(t))
	}

	if err := h.custody.UpdateCustodyBatch(ctx, tokenIDs, id.Address(req.Custodian), req.Method); err != nil {
		h.logger.WarnContext(ctx, "custody batch failed",
			"request_id", requestcontext.RequestID(ctx),
			"tokens", len(tokenIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyCertificateRequest struct {
	Hash string `json:"hash"`
}

func (h *Handler) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	req, ok := httputil.DecodeAndPrepare[verifyCertificateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	valid, err := h.custody.VerifyCertificate(ctx, tokenID, req.Hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token_id": tokenID.String(),
		"valid":    valid,
	})
}

func (h *Handler) handleIsLocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID := id.TokenID(chi.URLParam(r, "tokenID"))
	locked, err := h.custody.IsAssetLocked(ctx, tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token_id": tokenID.String(),
		"locked":   locked,
	})
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, err := h.custody.GetAsset(ctx, id.TokenID(chi.URLParam(r, "tokenID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) handleTokensByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assets, err := h.custody.TokensByOwner(ctx, id.Address(chi.URLParam(r, "address")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
