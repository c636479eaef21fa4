package authz

import (
	"context"
	"sync"

	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemory is a registry adapter backed by process memory. It serves the
// single-node wiring and tests; the setters model registry-side changes the
// core only ever observes.
type InMemory struct {
	mu          sync.RWMutex
	roles       map[id.Address]id.Role
	members     map[id.MemberID]id.MemberStatus
	blacklisted map[id.Address]bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		roles:       make(map[id.Address]id.Role),
		members:     make(map[id.MemberID]id.MemberStatus),
		blacklisted: make(map[id.Address]bool),
	}
}

func (r *InMemory) IsInRole(_ context.Context, addr id.Address, role id.Role) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles[addr].Has(role), nil
}

func (r *InMemory) MemberStatus(_ context.Context, memberID id.MemberID) (id.MemberStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.members[memberID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return status, nil
}

func (r *InMemory) IsBlacklisted(_ context.Context, addr id.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blacklisted[addr], nil
}

// GrantRole adds role bits to an address.
func (r *InMemory) GrantRole(addr id.Address, role id.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[addr] = r.roles[addr].Union(role)
}

// SetMemberStatus records a member's lifecycle status.
func (r *InMemory) SetMemberStatus(memberID id.MemberID, status id.MemberStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[memberID] = status
}

// SetBlacklisted toggles an address on the compliance blacklist.
func (r *InMemory) SetBlacklisted(addr id.Address, blacklisted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blacklisted[addr] = blacklisted
}
