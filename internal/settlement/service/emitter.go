package service

import (
	"context"
	"log/slog"

	"aurum/internal/settlement/models"
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
	event.Actor = requestcontext.Caller(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	if e.publisher == nil {
		e.logger.InfoContext(ctx, "audit event (no publisher)", "action", event.Action, "order", event.OrderRef)
		return nil
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit trail unavailable")
	}
	return nil
}

func (e *auditEmitter) emitOrderCreated(ctx context.Context, o *models.Order) error {
	return e.emit(ctx, audit.Event{
		Action:   audit.ActionOrderCreated,
		MemberID: o.InitiatorID,
		OrderRef: o.TxRef,
		Detail:   o.Type,
	})
}

func (e *auditEmitter) emitOrderPrepared(ctx context.Context, o *models.Order) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionOrderPrepared,
		MemberID:  o.InitiatorID,
		OrderRef:  o.TxRef,
		AccountID: o.SourceAccountID,
		Detail:    string(o.Status),
	})
}

func (e *auditEmitter) emitOrderSigned(ctx context.Context, o *models.Order, party string) error {
	return e.emit(ctx, audit.Event{
		Action:   audit.ActionOrderSigned,
		OrderRef: o.TxRef,
		Detail:   party,
	})
}

func (e *auditEmitter) emitOrderExecuted(ctx context.Context, o *models.Order) error {
	return e.emit(ctx, audit.Event{
		Action:    audit.ActionOrderExecuted,
		OrderRef:  o.TxRef,
		AccountID: o.DestAccountID,
		Delta:     o.Quantity(),
	})
}

func (e *auditEmitter) emitOrderCancelled(ctx context.Context, o *models.Order, reason string) error {
	return e.emit(ctx, audit.Event{
		Action:   audit.ActionOrderCancelled,
		OrderRef: o.TxRef,
		Reason:   reason,
	})
}
