package asset

import (
	"context"
	"sync"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemory stores assets in process memory. It owns the warrant uniqueness
// set and the owner reverse index.
type InMemory struct {
	mu       sync.RWMutex
	assets   map[id.TokenID]*models.Asset
	warrants map[id.WarrantID]id.TokenID
	byOwner  map[id.Address]map[id.TokenID]struct{}
	next     uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		assets:   make(map[id.TokenID]*models.Asset),
		warrants: make(map[id.WarrantID]id.TokenID),
		byOwner:  make(map[id.Address]map[id.TokenID]struct{}),
		next:     1,
	}
}

// NextID allocates the next sequential token identifier.
func (s *InMemory) NextID(_ context.Context) (id.TokenID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocated := id.NewTokenID(s.next)
	s.next++
	return allocated, nil
}

// WarrantUsed reports whether a warrant id was consumed by any mint ever,
// including burned tokens.
func (s *InMemory) WarrantUsed(_ context.Context, warrantID id.WarrantID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, used := s.warrants[warrantID]
	return used, nil
}

// Create persists a freshly minted asset and claims its warrant id.
func (s *InMemory) Create(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.warrants[asset.WarrantID]; used {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.assets[asset.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *asset
	s.assets[asset.ID] = &cp
	s.warrants[asset.WarrantID] = asset.ID
	s.index(asset.Owner, asset.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tokenID id.TokenID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *asset
	return &cp, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.Address) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Asset
	for tokenID := range s.byOwner[owner] {
		cp := *s.assets[tokenID]
		out = append(out, &cp)
	}
	return out, nil
}

// Execute runs validate then apply against the live record while holding the
// store lock. The owner index follows any owner change made by apply.
func (s *InMemory) Execute(_ context.Context, tokenID id.TokenID,
	validate func(*models.Asset) error, apply func(*models.Asset)) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(asset); err != nil {
		return nil, err
	}
	before := asset.Owner
	apply(asset)
	if asset.Owner != before {
		s.unindex(before, tokenID)
		s.index(asset.Owner, tokenID)
	}
	cp := *asset
	return &cp, nil
}

func (s *InMemory) index(owner id.Address, tokenID id.TokenID) {
	set, ok := s.byOwner[owner]
	if !ok {
		set = make(map[id.TokenID]struct{})
		s.byOwner[owner] = set
	}
	set[tokenID] = struct{}{}
}

func (s *InMemory) unindex(owner id.Address, tokenID id.TokenID) {
	if set, ok := s.byOwner[owner]; ok {
		delete(set, tokenID)
		if len(set) == 0 {
			delete(s.byOwner, owner)
		}
	}
}
