package service

import (
	"context"
	"log/slog"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/requestcontext"
)

// auditEmitter shields the service from a nil publisher and keeps event
// construction in one place. Emission failure fails the operation: the event
// log is the durable record.
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
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"account_id", event.AccountID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit emit failed")
	}
	return nil
}

func (e *auditEmitter) emitAccountCreated(ctx context.Context, account *models.Account) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionAccountCreated,
		Actor:     requestcontext.Caller(ctx),
		AccountID: account.ID,
		MemberID:  account.MemberID,
	})
}

func (e *auditEmitter) emitBalanceUpdated(ctx context.Context, actor id.Address, account *models.Account, delta int64, reason, refID string) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionBalanceUpdated,
		Actor:     actor,
		AccountID: account.ID,
		MemberID:  account.MemberID,
		Delta:     delta,
		Balance:   account.Balance,
		Reason:    reason,
		Reference: refID,
	})
}

func (e *auditEmitter) emitBalanceUpdaterSet(ctx context.Context, actor id.Address, holder string, enabled bool) error {
	detail := "disabled"
	if enabled {
		detail = "enabled"
	}
	return e.emit(ctx, audit.Event{
		Action: audit.ActionBalanceUpdaterSet,
		Actor:  actor,
		Reason: holder,
		Detail: detail,
	})
}
