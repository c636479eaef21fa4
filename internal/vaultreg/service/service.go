package service

import (
	"context"
	"errors"
	"log/slog"

	"aurum/internal/authz"
	"aurum/internal/vaultreg/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// Store is the persistence port for the vault registry.
type Store interface {
	CreateSite(ctx context.Context, site *models.Site) error
	FindSite(ctx context.Context, siteID string) (*models.Site, error)
	ListSites(ctx context.Context) ([]*models.Site, error)
	CreateVault(ctx context.Context, vault *models.Vault) error
	FindVault(ctx context.Context, vaultID string) (*models.Vault, error)
	ListVaultsBySite(ctx context.Context, siteID string) ([]*models.Vault, error)
	CreateAnchor(ctx context.Context, anchor *models.DocumentAnchor) error
	FindAnchor(ctx context.Context, anchorID string) (*models.DocumentAnchor, error)
	ListAnchorsByToken(ctx context.Context, tokenID id.TokenID) ([]*models.DocumentAnchor, error)
}

// Service maintains the registry of storage sites, vaults and anchored
// documents. Writes are restricted to custodian and vault operator roles.
type Service struct {
	store    Store
	registry authz.Registry
	logger   *slog.Logger
}

type serviceConfig struct {
	logger *slog.Logger
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func NewService(store Store, registry authz.Registry, options ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{store: store, registry: registry, logger: cfg.logger}
}

func (s *Service) requireOperator(ctx context.Context) error {
	caller := requestcontext.Caller(ctx)
	ok, err := authz.HasAnyRole(ctx, s.registry, caller, id.RoleCustodian, id.RoleVaultOperator)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "custodian or vault operator role required")
	}
	return nil
}

func (s *Service) RegisterSite(ctx context.Context, siteID, name, country string, operator id.MemberID) (*models.Site, error) {
	if err := s.requireOperator(ctx); err != nil {
		return nil, err
	}
	site, err := models.NewSite(siteID, name, country, operator, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSite(ctx, site); err != nil {
		return nil, wrapRegistryErr(err, "site", siteID)
	}
	s.logger.InfoContext(ctx, "site registered", "site", siteID, "operator", operator)
	return site, nil
}

func (s *Service) RegisterVault(ctx context.Context, vaultID, siteID, label string) (*models.Vault, error) {
	if err := s.requireOperator(ctx); err != nil {
		return nil, err
	}
	vault, err := models.NewVault(vaultID, siteID, label, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateVault(ctx, vault); err != nil {
		return nil, wrapRegistryErr(err, "vault", vaultID)
	}
	s.logger.InfoContext(ctx, "vault registered", "vault", vaultID, "site", siteID)
	return vault, nil
}

// AnchorDocument stores the digest of a supporting document for a token.
// The content itself never persists.
func (s *Service) AnchorDocument(ctx context.Context, anchorID string, tokenID id.TokenID, kind string, content []byte) (*models.DocumentAnchor, error) {
	if err := s.requireOperator(ctx); err != nil {
		return nil, err
	}
	anchor, err := models.NewDocumentAnchor(anchorID, tokenID, kind, content, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateAnchor(ctx, anchor); err != nil {
		return nil, wrapRegistryErr(err, "anchor", anchorID)
	}
	return anchor, nil
}

// VerifyDocument re-hashes content against the stored anchor.
func (s *Service) VerifyDocument(ctx context.Context, anchorID string, content []byte) (bool, error) {
	anchor, err := s.store.FindAnchor(ctx, anchorID)
	if err != nil {
		return false, wrapRegistryErr(err, "anchor", anchorID)
	}
	return anchor.VerifyAnchor(content), nil
}

func (s *Service) GetSite(ctx context.Context, siteID string) (*models.Site, error) {
	site, err := s.store.FindSite(ctx, siteID)
	if err != nil {
		return nil, wrapRegistryErr(err, "site", siteID)
	}
	return site, nil
}

func (s *Service) ListSites(ctx context.Context) ([]*models.Site, error) {
	return s.store.ListSites(ctx)
}

func (s *Service) GetVault(ctx context.Context, vaultID string) (*models.Vault, error) {
	vault, err := s.store.FindVault(ctx, vaultID)
	if err != nil {
		return nil, wrapRegistryErr(err, "vault", vaultID)
	}
	return vault, nil
}

func (s *Service) VaultsBySite(ctx context.Context, siteID string) ([]*models.Vault, error) {
	return s.store.ListVaultsBySite(ctx, siteID)
}

func (s *Service) AnchorsByToken(ctx context.Context, tokenID id.TokenID) ([]*models.DocumentAnchor, error) {
	return s.store.ListAnchorsByToken(ctx, tokenID)
}

func wrapRegistryErr(err error, kind, key string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, key)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Newf(dErrors.CodeConflict, "%s %s already exists", kind, key)
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry store failure")
	}
}
