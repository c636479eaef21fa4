package service

import (
	"context"
	"log/slog"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/requestcontext"
)

type auditEmitter struct {
	logger    *slog.Logger
	publisher *audit.Publisher
}

func newAuditEmitter(logger *slog.Logger, publisher *audit.Publisher) *auditEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) error {
	if e.publisher == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	if event.Actor.IsNil() {
		event.Actor = requestcontext.Caller(ctx)
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"token_id", event.TokenID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit emit failed")
	}
	return nil
}

func (e *auditEmitter) emitAssetMinted(ctx context.Context, a *models.Asset) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionAssetMinted,
		TokenID:   a.ID,
		AccountID: a.MintAccountID,
		MemberID:  a.MemberID,
		Detail:    a.Serial + "/" + a.Refiner,
	})
}

func (e *auditEmitter) emitWarrantLinked(ctx context.Context, a *models.Asset) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionWarrantLinked,
		TokenID:   a.ID,
		Reference: string(a.WarrantID),
	})
}

func (e *auditEmitter) emitAssetBurned(ctx context.Context, a *models.Asset, reason string) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionAssetBurned,
		TokenID:   a.ID,
		AccountID: a.MintAccountID,
		Reason:    reason,
	})
}

func (e *auditEmitter) emitStatusChanged(ctx context.Context, a *models.Asset, reason string) error {
	return e.emit(ctx, audit.Event{
		Action:  audit.ActionStatusChanged,
		TokenID: a.ID,
		Reason:  reason,
		Detail:  string(a.Status),
	})
}

func (e *auditEmitter) emitCustodyChanged(ctx context.Context, a *models.Asset, custodian id.Address, method string) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionCustodyChanged,
		TokenID:   a.ID,
		Reference: string(custodian),
		Detail:    method,
	})
}

func (e *auditEmitter) emitOwnershipUpdated(ctx context.Context, a *models.Asset, from id.Address, reason string) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionOwnershipUpdated,
		TokenID:   a.ID,
		Reason:    reason,
		Reference: string(from),
		Detail:    string(a.Owner),
	})
}
