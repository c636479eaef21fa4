package memory

import (
	"context"
	"sync"

	"aurum/internal/vaultreg/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemoryStore keeps the vault registry in process memory. Registry data is
// small and read-heavy, so a single mutex over plain maps is enough.
type InMemoryStore struct {
	mu      sync.RWMutex
	sites   map[string]*models.Site
	vaults  map[string]*models.Vault
	anchors map[string]*models.DocumentAnchor
	byToken map[id.TokenID][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sites:   make(map[string]*models.Site),
		vaults:  make(map[string]*models.Vault),
		anchors: make(map[string]*models.DocumentAnchor),
		byToken: make(map[id.TokenID][]string),
	}
}

func (s *InMemoryStore) CreateSite(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[site.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *site
	s.sites[site.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSite(_ context.Context, siteID string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[siteID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *site
	return &cp, nil
}

func (s *InMemoryStore) ListSites(_ context.Context) ([]*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Site, 0, len(s.sites))
	for _, site := range s.sites {
		cp := *site
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) CreateVault(_ context.Context, vault *models.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vaults[vault.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.sites[vault.SiteID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *vault
	s.vaults[vault.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindVault(_ context.Context, vaultID string) (*models.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vault, ok := s.vaults[vaultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *vault
	return &cp, nil
}

func (s *InMemoryStore) ListVaultsBySite(_ context.Context, siteID string) ([]*models.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Vault
	for _, vault := range s.vaults {
		if vault.SiteID == siteID {
			cp := *vault
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreateAnchor(_ context.Context, anchor *models.DocumentAnchor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[anchor.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *anchor
	s.anchors[anchor.ID] = &cp
	s.byToken[anchor.TokenID] = append(s.byToken[anchor.TokenID], anchor.ID)
	return nil
}

func (s *InMemoryStore) FindAnchor(_ context.Context, anchorID string) (*models.DocumentAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anchor, ok := s.anchors[anchorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *anchor
	return &cp, nil
}

func (s *InMemoryStore) ListAnchorsByToken(_ context.Context, tokenID id.TokenID) ([]*models.DocumentAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byToken[tokenID]
	out := make([]*models.DocumentAnchor, 0, len(ids))
	for _, anchorID := range ids {
		cp := *s.anchors[anchorID]
		out = append(out, &cp)
	}
	return out, nil
}
