package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// Service defines the interface for account ledger operations.
type Service interface {
	CreateAccount(ctx context.Context, memberID id.MemberID, address id.Address) (*models.Account, error)
	UpdateBalance(ctx context.Context, accountID id.AccountID, delta int64, reason, refID string) (*models.Account, error)
	SetBalanceUpdater(ctx context.Context, holder string, enabled bool) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	GetAccountBalance(ctx context.Context, accountID id.AccountID) (int64, error)
	AccountsByMember(ctx context.Context, memberID id.MemberID) ([]*models.Account, error)
	AccountsByAddress(ctx context.Context, address id.Address) ([]*models.Account, error)
}

// Handler handles account ledger endpoints.
type Handler struct {
	logger *slog.Logger
	ledger Service
}

func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/accounts", h.handleCreateAccount)
	r.Get("/accounts/{accountID}", h.handleGetAccount)
	r.Get("/accounts/{accountID}/balance", h.handleGetBalance)
	r.Post("/accounts/{accountID}/balance", h.handleUpdateBalance)
	r.Get("/members/{memberID}/accounts", h.handleAccountsByMember)
	r.Get("/addresses/{address}/accounts", h.handleAccountsByAddress)
	r.Put("/updaters", h.handleSetBalanceUpdater)
}

type createAccountRequest struct {
	MemberID string `json:"member_id"`
	Address  string `json:"address"`
}

type accountResponse struct {
	AccountID string    `json:"account_id"`
	MemberID  string    `json:"member_id"`
	Address   string    `json:"address"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		AccountID: a.ID.String(),
		MemberID:  a.MemberID.String(),
		Address:   a.Address.String(),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createAccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	account, err := h.ledger.CreateAccount(ctx, id.MemberID(req.MemberID), id.Address(req.Address))
	if err != nil {
		h.logger.WarnContext(ctx, "create account failed",
			"request_id", requestcontext.RequestID(ctx),
			"member", req.MemberID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

type updateBalanceRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
	RefID  string `json:"ref_id"`
}

func (h *Handler) handleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateBalanceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	account, err := h.ledger.UpdateBalance(ctx, accountID, req.Delta, req.Reason, req.RefID)
	if err != nil {
		h.logger.WarnContext(ctx, "balance update failed",
			"request_id", requestcontext.RequestID(ctx),
			"account", accountID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

type setBalanceUpdaterRequest struct {
	Holder  string `json:"holder"`
	Enabled bool   `json:"enabled"`
}

func (h *Handler) handleSetBalanceUpdater(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[setBalanceUpdaterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.Holder == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "holder is required"))
		return
	}

	if err := h.ledger.SetBalanceUpdater(ctx, req.Holder, req.Enabled); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}
	account, err := h.ledger.GetAccount(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}
	balance, err := h.ledger.GetAccountBalance(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID.String(),
		"balance":    balance,
	})
}

func (h *Handler) handleAccountsByMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.ledger.AccountsByMember(ctx, id.MemberID(chi.URLParam(r, "memberID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeAccountList(w, accounts)
}

func (h *Handler) handleAccountsByAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.ledger.AccountsByAddress(ctx, id.Address(chi.URLParam(r, "address")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeAccountList(w, accounts)
}

func (h *Handler) writeAccountList(w http.ResponseWriter, accounts []*models.Account) {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
