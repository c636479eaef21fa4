package account

import (
	"context"
	"sync"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemory stores accounts in process memory. The IGAN counter is part of
// the store so ids stay monotonic and are never reused.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	next     uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.AccountID]*models.Account),
		next:     id.FirstAccountNumber,
	}
}

// NextID allocates the next sequential IGAN identifier.
func (s *InMemory) NextID(_ context.Context) (id.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocated := id.NewAccountID(s.next)
	s.next++
	return allocated, nil
}

func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *InMemory) ListByMember(_ context.Context, memberID id.MemberID) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, account := range s.accounts {
		if account.MemberID == memberID {
			cp := *account
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) ListByAddress(_ context.Context, address id.Address) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, account := range s.accounts {
		if account.Address == address {
			cp := *account
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Execute runs validate then apply against the live record while holding the
// store lock, so the check and the mutation are one atomic step.
func (s *InMemory) Execute(_ context.Context, accountID id.AccountID,
	validate func(*models.Account) error, apply func(*models.Account)) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	apply(account)
	cp := *account
	return &cp, nil
}
