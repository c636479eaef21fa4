// Package ports defines the settlement service's view of the other core
// components. Execution is the only operation that touches both, and it
// touches them through these narrow interfaces.
package ports

import (
	"context"

	custodymodels "aurum/internal/custody/models"
	ledgermodels "aurum/internal/ledger/models"
	id "aurum/pkg/domain"
)

// LedgerReader answers balance queries during execution preflight.
type LedgerReader interface {
	GetAccountBalance(ctx context.Context, accountID id.AccountID) (int64, error)
}

// LedgerWriter is the ledger-write capability issued to the settlement
// component at wiring time.
type LedgerWriter interface {
	UpdateBalance(ctx context.Context, accountID id.AccountID, delta int64, reason, refID string) (*ledgermodels.Account, error)
}

// CustodyReader answers token queries during execution preflight.
type CustodyReader interface {
	GetAsset(ctx context.Context, tokenID id.TokenID) (*custodymodels.Asset, error)
}

// CustodySettler is the privileged reassignment authority: it moves tokens
// without re-checking the custody lock and lands them IN_VAULT at the
// counterparty.
type CustodySettler interface {
	Reassign(ctx context.Context, tokenID id.TokenID, to id.Address, orderRef id.OrderRef) (*custodymodels.Asset, error)
}
