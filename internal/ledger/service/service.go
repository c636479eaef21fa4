package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"aurum/internal/authz"
	ledgermetrics "aurum/internal/ledger/metrics"
	"aurum/internal/ledger/models"
	"aurum/internal/platform/storetx"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// AccountStore is the persistence port for accounts.
type AccountStore interface {
	NextID(ctx context.Context) (id.AccountID, error)
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Account, error)
	ListByAddress(ctx context.Context, address id.Address) ([]*models.Account, error)
	Execute(ctx context.Context, accountID id.AccountID,
		validate func(*models.Account) error, apply func(*models.Account)) (*models.Account, error)
}

// Service owns account records and balances. Every balance movement, human
// or contract-driven, funnels through applyDelta so both paths share the
// same invariant checks.
type Service struct {
	accounts AccountStore
	registry authz.Registry
	emitter  *auditEmitter
	metrics  *ledgermetrics.Metrics
	tx       storetx.Runner

	updatersMu sync.RWMutex
	updaters   map[string]bool
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher *audit.Publisher
	metrics        *ledgermetrics.Metrics
	tx             storetx.Runner
}

// Option configures the Service.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = p }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithTx(tx storetx.Runner) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

func NewService(accounts AccountStore, registry authz.Registry, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = storetx.NewInMemory()
	}
	return &Service{
		accounts: accounts,
		registry: registry,
		emitter:  newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:  cfg.metrics,
		tx:       tx,
		updaters: make(map[string]bool),
	}
}

// CreateAccount opens a gold account for an active member. Platform role only.
func (s *Service) CreateAccount(ctx context.Context, memberID id.MemberID, address id.Address) (*models.Account, error) {
	caller := requestcontext.Caller(ctx)
	ok, err := s.registry.IsInRole(ctx, caller, id.RolePlatform)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "platform role required")
	}

	status, err := s.registry.MemberStatus(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "member status check failed")
	}
	if !status.IsActive() {
		return nil, dErrors.Newf(dErrors.CodeMemberNotActive, "member is %s", status)
	}

	var account *models.Account
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		accountID, err := s.accounts.NextID(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate account id")
		}
		a, err := models.NewAccount(accountID, memberID, address, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.accounts.Create(txCtx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
		}
		if err := s.emitter.emitAccountCreated(txCtx, a); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncAccountsCreated()
	}
	return account, nil
}

// UpdateBalance is the human-operator correction path. Platform or custodian
// role required.
func (s *Service) UpdateBalance(ctx context.Context, accountID id.AccountID, delta int64, reason, refID string) (*models.Account, error) {
	caller := requestcontext.Caller(ctx)
	ok, err := authz.HasAnyRole(ctx, s.registry, caller, id.RolePlatform, id.RoleCustodian)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "platform or custodian role required")
	}
	return s.applyDelta(ctx, string(caller), accountID, delta, reason, refID)
}

// applyDelta is the single invariant-checked balance mutation shared by the
// operator path and the contract capability path.
func (s *Service) applyDelta(ctx context.Context, actor string, accountID id.AccountID, delta int64, reason, refID string) (*models.Account, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}

	var account *models.Account
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		a, err := s.accounts.Execute(txCtx, accountID,
			func(a *models.Account) error {
				return a.CanApplyDelta(delta)
			},
			func(a *models.Account) {
				a.ApplyDelta(delta, now)
			},
		)
		if err != nil {
			return wrapAccountErr(err)
		}
		if err := s.emitter.emitBalanceUpdated(txCtx, id.Address(actor), a, delta, reason, refID); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncBalanceUpdates(reason)
	}
	return account, nil
}

// GetAccountBalance returns the current balance.
func (s *Service) GetAccountBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return 0, wrapAccountErr(err)
	}
	return account.Balance, nil
}

// GetAccount returns the full account record.
func (s *Service) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return account, nil
}

// AccountsByMember lists a member's accounts; empty slice when none.
func (s *Service) AccountsByMember(ctx context.Context, memberID id.MemberID) ([]*models.Account, error) {
	return s.accounts.ListByMember(ctx, memberID)
}

// AccountsByAddress lists accounts linked to an address; empty slice when none.
func (s *Service) AccountsByAddress(ctx context.Context, address id.Address) ([]*models.Account, error) {
	return s.accounts.ListByAddress(ctx, address)
}

func wrapAccountErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case dErrors.HasCode(err, dErrors.CodeInsufficientBalance):
		return err
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
	}
}
