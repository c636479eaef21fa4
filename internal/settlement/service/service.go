package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aurum/internal/authz"
	"aurum/internal/platform/storetx"
	settlementmetrics "aurum/internal/settlement/metrics"
	"aurum/internal/settlement/models"
	"aurum/internal/settlement/ports"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// ReasonOrder is the ledger push reason used for both settlement legs.
const ReasonOrder = "ORDER"

// OrderStore is the persistence port for settlement orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByRef(ctx context.Context, txRef id.OrderRef) (*models.Order, error)
	Execute(ctx context.Context, txRef id.OrderRef,
		validate func(*models.Order) error, apply func(*models.Order)) (*models.Order, error)
}

// ExecutionOptions controls which side effects the execute transition
// performs. Disabling one supports hybrid deployments where status is
// tracked here but the actual movement reconciles off-path.
type ExecutionOptions struct {
	OnChainTransfer  bool
	AutoLedgerUpdate bool
}

// Service owns order records and drives the settlement protocol. Only the
// execute transition touches the custody and ledger components, and it
// touches both together inside one transaction boundary.
type Service struct {
	orders   OrderStore
	registry authz.Registry
	ledger   ports.LedgerReader
	writer   ports.LedgerWriter
	custody  ports.CustodyReader
	settler  ports.CustodySettler
	emitter  *auditEmitter
	metrics  *settlementmetrics.Metrics
	tx       storetx.Runner
	tracer   trace.Tracer

	optsMu sync.RWMutex
	opts   ExecutionOptions
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher *audit.Publisher
	metrics        *settlementmetrics.Metrics
	tx             storetx.Runner
	opts           ExecutionOptions
}

// Option configures the Service.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = p }
}

func WithMetrics(m *settlementmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithTx(tx storetx.Runner) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// WithExecutionOptions sets the initial execution toggles.
func WithExecutionOptions(opts ExecutionOptions) Option {
	return func(c *serviceConfig) { c.opts = opts }
}

func NewService(orders OrderStore, registry authz.Registry,
	ledger ports.LedgerReader, writer ports.LedgerWriter,
	custody ports.CustodyReader, settler ports.CustodySettler, options ...Option) *Service {
	cfg := &serviceConfig{
		opts: ExecutionOptions{OnChainTransfer: true, AutoLedgerUpdate: true},
	}
	for _, opt := range options {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = storetx.NewInMemory()
	}
	return &Service{
		orders:   orders,
		registry: registry,
		ledger:   ledger,
		writer:   writer,
		custody:  custody,
		settler:  settler,
		emitter:  newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:  cfg.metrics,
		tx:       tx,
		tracer:   otel.Tracer("aurum/settlement"),
		opts:     cfg.opts,
	}
}

// SetExecutionOptions retoggles the execute side effects. Platform role only.
func (s *Service) SetExecutionOptions(ctx context.Context, opts ExecutionOptions) error {
	caller := requestcontext.Caller(ctx)
	ok, err := s.registry.IsInRole(ctx, caller, id.RolePlatform)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "platform role required")
	}
	s.optsMu.Lock()
	s.opts = opts
	s.optsMu.Unlock()
	return nil
}

// ExecutionOptions returns the current toggles.
func (s *Service) ExecutionOptions() ExecutionOptions {
	s.optsMu.RLock()
	defer s.optsMu.RUnlock()
	return s.opts
}

// PrepareOrder records a bilateral settlement instruction. The tx ref is
// consumed permanently even if the order is later cancelled.
func (s *Service) PrepareOrder(ctx context.Context, p models.PrepareParams) (*models.Order, error) {
	var order *models.Order
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := models.NewOrder(p, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.orders.Create(txCtx, o); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeConflict, "tx ref %s already exists", p.TxRef)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create order")
		}
		if err := s.emitter.emitOrderCreated(txCtx, o); err != nil {
			return err
		}
		if err := s.emitter.emitOrderPrepared(txCtx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPrepared()
	}
	return order, nil
}

// SignOrder records the counterparty signature and advances the order to
// PENDING_EXECUTION.
func (s *Service) SignOrder(ctx context.Context, txRef id.OrderRef, signature []byte, party string) (*models.Order, error) {
	if len(signature) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "signature is required")
	}

	var order *models.Order
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.orders.Execute(txCtx, txRef,
			func(o *models.Order) error { return o.CanSign() },
			func(o *models.Order) { o.ApplySignature(signature, party, now) },
		)
		if err != nil {
			return wrapOrderErr(err)
		}
		if err := s.emitter.emitOrderSigned(txCtx, o, party); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncSigned()
	}
	return order, nil
}

// ExecuteOrder consumes the order: every listed token is reassigned to the
// counterparty through the privileged no-lock-check path and lands IN_VAULT,
// and the ledger moves quantity (= token count) from source to destination.
// Both halves happen inside one transaction boundary or not at all.
func (s *Service) ExecuteOrder(ctx context.Context, txRef id.OrderRef) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "ExecuteOrder",
		trace.WithAttributes(attribute.String("order.tx_ref", string(txRef))))
	defer span.End()

	opts := s.ExecutionOptions()

	var order *models.Order
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindByRef(txCtx, txRef)
		if err != nil {
			return wrapOrderErr(err)
		}
		if err := o.CanExecute(); err != nil {
			return err
		}

		// Preflight before any mutation: every token must exist and be
		// live, and the source account must cover the debit.
		if opts.OnChainTransfer {
			for _, tokenID := range o.TokenIDs {
				asset, err := s.custody.GetAsset(txCtx, tokenID)
				if err != nil {
					return err
				}
				if asset.Status.IsTerminal() {
					return dErrors.Newf(dErrors.CodeInvalidState, "token %s is burned", tokenID)
				}
			}
		}
		if opts.AutoLedgerUpdate {
			balance, err := s.ledger.GetAccountBalance(txCtx, o.SourceAccountID)
			if err != nil {
				return err
			}
			if balance < o.Quantity() {
				return dErrors.Newf(dErrors.CodeInsufficientBalance,
					"source account %s holds %d, order settles %d", o.SourceAccountID, balance, o.Quantity())
			}
			if _, err := s.ledger.GetAccountBalance(txCtx, o.DestAccountID); err != nil {
				return err
			}
		}

		if opts.AutoLedgerUpdate {
			if _, err := s.writer.UpdateBalance(txCtx, o.SourceAccountID, -o.Quantity(), ReasonOrder, string(o.TxRef)); err != nil {
				return err
			}
			if _, err := s.writer.UpdateBalance(txCtx, o.DestAccountID, +o.Quantity(), ReasonOrder, string(o.TxRef)); err != nil {
				return err
			}
		}
		if opts.OnChainTransfer {
			for _, tokenID := range o.TokenIDs {
				if _, err := s.settler.Reassign(txCtx, tokenID, o.Counterparty, o.TxRef); err != nil {
					return err
				}
			}
		}

		now := requestcontext.Now(txCtx)
		o, err = s.orders.Execute(txCtx, txRef,
			func(o *models.Order) error { return o.CanExecute() },
			func(o *models.Order) { o.ApplyExecution(now) },
		)
		if err != nil {
			return wrapOrderErr(err)
		}
		if err := s.emitter.emitOrderExecuted(txCtx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncExecuted()
	}
	return order, nil
}

// CancelOrder is the administrative resolution path for orders stuck in a
// pending state. Platform role required; no settlement side effects.
func (s *Service) CancelOrder(ctx context.Context, txRef id.OrderRef, reason string) (*models.Order, error) {
	caller := requestcontext.Caller(ctx)
	ok, err := s.registry.IsInRole(ctx, caller, id.RolePlatform)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "platform role required")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}

	var order *models.Order
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.orders.Execute(txCtx, txRef,
			func(o *models.Order) error { return o.CanCancel() },
			func(o *models.Order) { o.ApplyCancellation(now) },
		)
		if err != nil {
			return wrapOrderErr(err)
		}
		if err := s.emitter.emitOrderCancelled(txCtx, o, reason); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCancelled()
	}
	return order, nil
}

// GetOrder returns the full order record.
func (s *Service) GetOrder(ctx context.Context, txRef id.OrderRef) (*models.Order, error) {
	order, err := s.orders.FindByRef(ctx, txRef)
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	return order, nil
}

func wrapOrderErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "order not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "order store failure")
	}
}
