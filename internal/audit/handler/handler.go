package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aurum/internal/authz"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

const defaultListLimit = 100

// Handler exposes the audit trail read surface. Auditor or governance role
// required; the trail itself is append-only and written by the services.
type Handler struct {
	logger    *slog.Logger
	publisher *audit.Publisher
	registry  authz.Registry
}

func New(publisher *audit.Publisher, registry authz.Registry, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, publisher: publisher, registry: registry}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleListRecent)
	r.Get("/accounts/{accountID}/events", h.handleListByAccount)
}

func (h *Handler) requireAuditor(r *http.Request) error {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	ok, err := authz.HasAnyRole(ctx, h.registry, caller, id.RoleAuditor, id.RoleGovernance)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "auditor role required")
	}
	return nil
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireAuditor(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.publisher.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleListByAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireAuditor(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account id does not match IGAN format"))
		return
	}

	events, err := h.publisher.ListByAccount(ctx, accountID.String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
