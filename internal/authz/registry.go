// Package authz is the boundary to the authorization registry: member
// identity, role masks, status, and the address blacklist. The core consults
// it on every privileged operation and never mutates it.
package authz

import (
	"context"

	id "aurum/pkg/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/registry-mocks.go -package=mocks Registry

// Registry is the role/status/blacklist oracle.
type Registry interface {
	// IsInRole reports whether the address holds every role bit in role.
	IsInRole(ctx context.Context, addr id.Address, role id.Role) (bool, error)
	// MemberStatus returns the member's lifecycle status. Unknown members
	// are reported as sentinel.ErrNotFound.
	MemberStatus(ctx context.Context, memberID id.MemberID) (id.MemberStatus, error)
	// IsBlacklisted reports whether the address is on the compliance blacklist.
	IsBlacklisted(ctx context.Context, addr id.Address) (bool, error)
}

// HasAnyRole is the common "one of these roles suffices" check.
func HasAnyRole(ctx context.Context, reg Registry, addr id.Address, roles ...id.Role) (bool, error) {
	for _, role := range roles {
		ok, err := reg.IsInRole(ctx, addr, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
