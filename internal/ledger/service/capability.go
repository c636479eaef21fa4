package service

import (
	"context"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/requestcontext"
)

// WriteCapability is an unforgeable handle onto the contract-driven balance
// update path. The ledger issues one per privileged component (custody,
// settlement) at wiring time; holding the value is the authorization. This
// replaces a per-address allowlist flag with an explicit credential, while
// keeping SetBalanceUpdater as the platform-gated enable/disable switch.
type WriteCapability struct {
	holder string
	svc    *Service
}

// GrantWriteCapability issues a ledger-write capability to a named component.
// Call once per component during wiring; the grant starts enabled.
func (s *Service) GrantWriteCapability(holder string) *WriteCapability {
	s.updatersMu.Lock()
	s.updaters[holder] = true
	s.updatersMu.Unlock()
	return &WriteCapability{holder: holder, svc: s}
}

// SetBalanceUpdater toggles a granted capability. Platform role required.
func (s *Service) SetBalanceUpdater(ctx context.Context, holder string, enabled bool) error {
	caller := requestcontext.Caller(ctx)
	ok, err := s.registry.IsInRole(ctx, caller, id.RolePlatform)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role check failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "platform role required")
	}
	s.updatersMu.Lock()
	_, granted := s.updaters[holder]
	if granted {
		s.updaters[holder] = enabled
	}
	s.updatersMu.Unlock()
	if !granted {
		return dErrors.Newf(dErrors.CodeNotFound, "no capability granted to %q", holder)
	}
	return s.emitter.emitBalanceUpdaterSet(ctx, caller, holder, enabled)
}

// Holder names the component the capability was issued to.
func (c *WriteCapability) Holder() string { return c.holder }

// UpdateBalance applies a contract-driven delta. Identical invariant checks
// to the operator path; only the authorization differs.
func (c *WriteCapability) UpdateBalance(ctx context.Context, accountID id.AccountID, delta int64, reason, refID string) (*models.Account, error) {
	c.svc.updatersMu.RLock()
	enabled := c.svc.updaters[c.holder]
	c.svc.updatersMu.RUnlock()
	if !enabled {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "balance updater %q is disabled", c.holder)
	}
	return c.svc.applyDelta(ctx, c.holder, accountID, delta, reason, refID)
}
