package service

import (
	"context"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
)

// SettlementAuthority is the privileged reassignment handle issued to the
// settlement service at wiring time. It moves a token without re-checking
// the custody lock: by the time an order executes, both parties have already
// committed, which is what the lock exists to guarantee. The token lands
// IN_VAULT on the receiving side, completing the custody chain.
type SettlementAuthority struct {
	svc *Service
}

// GrantSettlementAuthority issues the privileged handle. Call once during
// wiring; nothing reachable from the HTTP surface exposes it.
func (s *Service) GrantSettlementAuthority() *SettlementAuthority {
	return &SettlementAuthority{svc: s}
}

// Reassign moves the token to the counterparty regardless of lock state.
// Burned tokens still refuse to move.
func (a *SettlementAuthority) Reassign(ctx context.Context, tokenID id.TokenID, to id.Address, orderRef id.OrderRef) (*models.Asset, error) {
	asset, err := a.svc.assets.FindByID(ctx, tokenID)
	if err != nil {
		return nil, wrapAssetErr(err)
	}
	return a.svc.reassign(ctx, tokenID, asset.Owner, to, string(orderRef), true)
}
