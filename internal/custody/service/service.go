package service

import (
	"context"
	"errors"
	"log/slog"

	"aurum/internal/authz"
	custodymetrics "aurum/internal/custody/metrics"
	"aurum/internal/custody/models"
	ledgermodels "aurum/internal/ledger/models"
	"aurum/internal/platform/storetx"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/audit"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// AssetStore is the persistence port for asset tokens. The store owns the
// warrant uniqueness set and the owner reverse index.
type AssetStore interface {
	NextID(ctx context.Context) (id.TokenID, error)
	WarrantUsed(ctx context.Context, warrantID id.WarrantID) (bool, error)
	Create(ctx context.Context, asset *models.Asset) error
	FindByID(ctx context.Context, tokenID id.TokenID) (*models.Asset, error)
	ListByOwner(ctx context.Context, owner id.Address) ([]*models.Asset, error)
	Execute(ctx context.Context, tokenID id.TokenID,
		validate func(*models.Asset) error, apply func(*models.Asset)) (*models.Asset, error)
}

// LedgerWriter is the contract-driven balance channel the ledger granted to
// this component. Mint pushes +1, burn pushes -1.
type LedgerWriter interface {
	UpdateBalance(ctx context.Context, accountID id.AccountID, delta int64, reason, refID string) (*ledgermodels.Account, error)
}

// Ledger push reasons.
const (
	ReasonMint = "MINT"
)

// Service owns token records and the custody state machine.
type Service struct {
	assets   AssetStore
	registry authz.Registry
	ledger   LedgerWriter
	emitter  *auditEmitter
	metrics  *custodymetrics.Metrics
	tx       storetx.Runner
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher *audit.Publisher
	metrics        *custodymetrics.Metrics
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

func WithMetrics(m *custodymetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithTx(tx storetx.Runner) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

func NewService(assets AssetStore, registry authz.Registry, ledger LedgerWriter, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = storetx.NewInMemory()
	}
	return &Service{
		assets:   assets,
		registry: registry,
		ledger:   ledger,
		emitter:  newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:  cfg.metrics,
		tx:       tx,
	}
}

// Mint creates a token for a physical bar and credits its ledger account +1.
// Refiner or minter role required. The warrant id must never have been used.
func (s *Service) Mint(ctx context.Context, p models.MintParams) (*models.Asset, error) {
	caller := requestcontext.Caller(ctx)
	ok, err := authz.HasAnyRole(ctx, s.registry, caller, id.RoleRefiner, id.RoleMinter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refiner or minter role required")
	}

	var asset *models.Asset
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		used, err := s.assets.WarrantUsed(txCtx, p.WarrantID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "warrant check failed")
		}
		if used {
			return dErrors.Newf(dErrors.CodeConflict, "warrant %s already used", p.WarrantID)
		}
		tokenID, err := s.assets.NextID(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate token id")
		}
		a, err := models.NewAsset(tokenID, p, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		// Credit first: an unknown account refuses the whole mint before the
		// token record exists.
		if _, err := s.ledger.UpdateBalance(txCtx, a.MintAccountID, +1, ReasonMint, string(a.ID)); err != nil {
			return err
		}
		if err := s.assets.Create(txCtx, a); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeConflict, "warrant %s already used", p.WarrantID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create asset")
		}
		if err := s.emitter.emitAssetMinted(txCtx, a); err != nil {
			return err
		}
		if err := s.emitter.emitWarrantLinked(txCtx, a); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncMinted()
	}
	return asset, nil
}

// UpdateStatus records a custody status change. Allowed for the token's
// current owner of record (re-checked here, so a prior owner loses the right
// the moment ownership moves) or for an asset-operator-class role.
func (s *Service) UpdateStatus(ctx context.Context, tokenID id.TokenID, status models.Status, reason string) (*models.Asset, error) {
	caller := requestcontext.Caller(ctx)
	operator, err := authz.HasAnyRole(ctx, s.registry, caller,
		id.RoleCustodian, id.RoleVaultOperator, id.RoleLogistics)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}

	var asset *models.Asset
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		a, err := s.assets.Execute(txCtx, tokenID,
			func(a *models.Asset) error {
				if !operator && a.Owner != caller {
					return dErrors.New(dErrors.CodeUnauthorized, "caller is neither owner nor asset operator")
				}
				return a.CanTransition()
			},
			func(a *models.Asset) {
				a.ApplyStatus(status, now)
			},
		)
		if err != nil {
			return wrapAssetErr(err)
		}
		if err := s.emitter.emitStatusChanged(txCtx, a, reason); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncStatusChanges(string(status))
	}
	return asset, nil
}

// UpdateCustodyBatch moves every listed token to IN_TRANSIT under a new
// custodian. Custodian role required. All tokens are validated before any is
// moved; a bad token fails the whole batch.
func (s *Service) UpdateCustodyBatch(ctx context.Context, tokenIDs []id.TokenID, newCustodian id.Address, method string) error {
	caller := requestcontext.Caller(ctx)
	ok, err := s.registry.IsInRole(ctx, caller, id.RoleCustodian)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "custodian role required")
	}
	if len(tokenIDs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "token list is empty")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, tokenID := range tokenIDs {
			a, err := s.assets.FindByID(txCtx, tokenID)
			if err != nil {
				return wrapAssetErr(err)
			}
			if err := a.CanTransition(); err != nil {
				return dErrors.Newf(dErrors.CodeInvalidState, "token %s is burned", tokenID)
			}
		}
		now := requestcontext.Now(txCtx)
		for _, tokenID := range tokenIDs {
			a, err := s.assets.Execute(txCtx, tokenID,
				func(a *models.Asset) error { return a.CanTransition() },
				func(a *models.Asset) { a.ApplyStatus(models.StatusInTransit, now) },
			)
			if err != nil {
				return wrapAssetErr(err)
			}
			if err := s.emitter.emitCustodyChanged(txCtx, a, newCustodian, method); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AddCustodyMoves(len(tokenIDs))
	}
	return nil
}

// Burn terminates a token and debits the account recorded at mint time.
// Refiner or minter role required; ownership is irrelevant here, unlike
// UpdateStatus. The accountID argument is accepted for API symmetry but the
// debit always follows the token's mint-time provenance.
func (s *Service) Burn(ctx context.Context, tokenID id.TokenID, _ id.AccountID, reason string) (*models.Asset, error) {
	caller := requestcontext.Caller(ctx)
	ok, err := authz.HasAnyRole(ctx, s.registry, caller, id.RoleRefiner, id.RoleMinter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refiner or minter role required")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}

	var asset *models.Asset
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.assets.FindByID(txCtx, tokenID)
		if err != nil {
			return wrapAssetErr(err)
		}
		if err := a.CanTransition(); err != nil {
			return err
		}
		// Debit before the status flip so a ledger refusal leaves the token
		// untouched. The debit always hits the mint-time account.
		if _, err := s.ledger.UpdateBalance(txCtx, a.MintAccountID, -1, reason, string(a.ID)); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		a, err = s.assets.Execute(txCtx, tokenID,
			func(a *models.Asset) error { return a.CanTransition() },
			func(a *models.Asset) { a.ApplyStatus(models.StatusBurned, now) },
		)
		if err != nil {
			return wrapAssetErr(err)
		}
		if err := s.emitter.emitAssetBurned(txCtx, a, reason); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncBurned()
	}
	return asset, nil
}

// Transfer is the ordinary ownership transfer path: blacklist-checked on
// both sides, refused while the custody lock is set. The caller must be the
// token's owner of record.
func (s *Service) Transfer(ctx context.Context, from, to id.Address, tokenID id.TokenID) (*models.Asset, error) {
	caller := requestcontext.Caller(ctx)
	if caller != from {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not the transferor")
	}
	for _, addr := range []id.Address{from, to} {
		blacklisted, err := s.registry.IsBlacklisted(ctx, addr)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "blacklist check failed")
		}
		if blacklisted {
			return nil, dErrors.Newf(dErrors.CodeCompliance, "address %s is blacklisted", addr)
		}
	}
	return s.reassign(ctx, tokenID, from, to, "TRANSFER", false)
}

// ForceTransfer overrides compliance holds, not custody holds: the blacklist
// check is skipped but a locked token still refuses to move. Platform role
// required.
func (s *Service) ForceTransfer(ctx context.Context, tokenID id.TokenID, from, to id.Address, reason string) (*models.Asset, error) {
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
	return s.reassign(ctx, tokenID, from, to, reason, false)
}

// reassign moves ownership of one token. skipLock is reserved for settlement
// execution, the one path allowed to move a locked token.
func (s *Service) reassign(ctx context.Context, tokenID id.TokenID, from, to id.Address, reason string, skipLock bool) (*models.Asset, error) {
	var asset *models.Asset
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		a, err := s.assets.Execute(txCtx, tokenID,
			func(a *models.Asset) error {
				if a.Owner != from {
					return dErrors.Newf(dErrors.CodeInvalidState, "token %s is not owned by %s", tokenID, from)
				}
				if skipLock {
					return a.CanTransition()
				}
				return a.CanTransfer()
			},
			func(a *models.Asset) {
				a.ApplyOwner(to, now)
				if skipLock {
					a.ApplyStatus(models.StatusInVault, now)
				}
			},
		)
		if err != nil {
			return wrapAssetErr(err)
		}
		if err := s.emitter.emitOwnershipUpdated(txCtx, a, from, reason); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransfers(reason)
	}
	return asset, nil
}

// VerifyCertificate compares a hash against the stored certificate hash.
func (s *Service) VerifyCertificate(ctx context.Context, tokenID id.TokenID, hash string) (bool, error) {
	asset, err := s.assets.FindByID(ctx, tokenID)
	if err != nil {
		return false, wrapAssetErr(err)
	}
	return asset.CertHash == hash, nil
}

// IsAssetLocked reports whether the custody lock is set.
func (s *Service) IsAssetLocked(ctx context.Context, tokenID id.TokenID) (bool, error) {
	asset, err := s.assets.FindByID(ctx, tokenID)
	if err != nil {
		return false, wrapAssetErr(err)
	}
	return asset.Status.IsLocked(), nil
}

// GetAsset returns the full token record.
func (s *Service) GetAsset(ctx context.Context, tokenID id.TokenID) (*models.Asset, error) {
	asset, err := s.assets.FindByID(ctx, tokenID)
	if err != nil {
		return nil, wrapAssetErr(err)
	}
	return asset, nil
}

// TokensByOwner lists tokens owned by an address; empty slice when none.
func (s *Service) TokensByOwner(ctx context.Context, owner id.Address) ([]*models.Asset, error) {
	return s.assets.ListByOwner(ctx, owner)
}

func wrapAssetErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "asset store failure")
	}
}
