package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aurum/internal/vaultreg/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// Service defines the interface for vault registry operations.
type Service interface {
	RegisterSite(ctx context.Context, siteID, name, country string, operator id.MemberID) (*models.Site, error)
	RegisterVault(ctx context.Context, vaultID, siteID, label string) (*models.Vault, error)
	AnchorDocument(ctx context.Context, anchorID string, tokenID id.TokenID, kind string, content []byte) (*models.DocumentAnchor, error)
	VerifyDocument(ctx context.Context, anchorID string, content []byte) (bool, error)
	GetSite(ctx context.Context, siteID string) (*models.Site, error)
	ListSites(ctx context.Context) ([]*models.Site, error)
	GetVault(ctx context.Context, vaultID string) (*models.Vault, error)
	VaultsBySite(ctx context.Context, siteID string) ([]*models.Vault, error)
	AnchorsByToken(ctx context.Context, tokenID id.TokenID) ([]*models.DocumentAnchor, error)
}

// Handler handles vault registry endpoints.
type Handler struct {
	logger   *slog.Logger
	vaultreg Service
}

func New(vaultreg Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, vaultreg: vaultreg}
}

// Register registers the vault registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sites", h.handleRegisterSite)
	r.Get("/sites", h.handleListSites)
	r.Get("/sites/{siteID}", h.handleGetSite)
	r.Get("/sites/{siteID}/vaults", h.handleVaultsBySite)
	r.Post("/vaults", h.handleRegisterVault)
	r.Get("/vaults/{vaultID}", h.handleGetVault)
	r.Post("/anchors", h.handleAnchorDocument)
	r.Post("/anchors/{anchorID}/verify", h.handleVerifyDocument)
	r.Get("/tokens/{tokenID}/anchors", h.handleAnchorsByToken)
}

type registerSiteRequest struct {
	SiteID   string `json:"site_id"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Operator string `json:"operator"`
}

func (h *Handler) handleRegisterSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[registerSiteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	site, err := h.vaultreg.RegisterSite(ctx, req.SiteID, req.Name, req.Country, id.MemberID(req.Operator))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, site)
}

type registerVaultRequest struct {
	VaultID string `json:"vault_id"`
	SiteID  string `json:"site_id"`
	Label   string `json:"label"`
}

func (h *Handler) handleRegisterVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[registerVaultRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	vault, err := h.vaultreg.RegisterVault(ctx, req.VaultID, req.SiteID, req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vault)
}

type anchorDocumentRequest struct {
	AnchorID string `json:"anchor_id"`
	TokenID  string `json:"token_id"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
}

func (h *Handler) handleAnchorDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[anchorDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "content must be base64"))
		return
	}

	anchor, err := h.vaultreg.AnchorDocument(ctx, req.AnchorID, id.TokenID(req.TokenID), req.Kind, content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, anchor)
}

type verifyDocumentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anchorID := chi.URLParam(r, "anchorID")
	req, ok := httputil.DecodeAndPrepare[verifyDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "content must be base64"))
		return
	}

	valid, err := h.vaultreg.VerifyDocument(ctx, anchorID, content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"anchor_id": anchorID,
		"valid":     valid,
	})
}

func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.vaultreg.GetSite(r.Context(), chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, site)
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.vaultreg.ListSites(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sites)
}

func (h *Handler) handleGetVault(w http.ResponseWriter, r *http.Request) {
	vault, err := h.vaultreg.GetVault(r.Context(), chi.URLParam(r, "vaultID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vault)
}

func (h *Handler) handleVaultsBySite(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.vaultreg.VaultsBySite(r.Context(), chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vaults)
}

func (h *Handler) handleAnchorsByToken(w http.ResponseWriter, r *http.Request) {
	anchors, err := h.vaultreg.AnchorsByToken(r.Context(), id.TokenID(chi.URLParam(r, "tokenID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, anchors)
}
