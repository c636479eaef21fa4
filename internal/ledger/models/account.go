package models

import (
	"time"

	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
)

// Account is a member's gold account.
//
// Invariants:
//   - ID is an IGAN identifier, assigned at creation, never reused
//   - Balance is a signed whole-unit count and never goes negative
//   - MemberID and Address are immutable after construction
//
// Balance moves only through the two ledger update paths (operator and
// contract capability); both funnel into CanApplyDelta/ApplyDelta so they
// share one non-negativity guarantee.
type Account struct {
	ID        id.AccountID `json:"id"`
	MemberID  id.MemberID  `json:"member_id"`
	Address   id.Address   `json:"address"`
	Balance   int64        `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CanApplyDelta checks the non-negativity invariant.
// Use with ApplyDelta in Execute callbacks.
func (a *Account) CanApplyDelta(delta int64) error {
	if a.Balance+delta < 0 {
		return dErrors.Newf(dErrors.CodeInsufficientBalance,
			"balance %d cannot absorb delta %d", a.Balance, delta)
	}
	return nil
}

// ApplyDelta moves the balance. Call CanApplyDelta first.
func (a *Account) ApplyDelta(delta int64, now time.Time) {
	a.Balance += delta
	a.UpdatedAt = now
}

func NewAccount(accountID id.AccountID, memberID id.MemberID, address id.Address, now time.Time) (*Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id is required")
	}
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member id is required")
	}
	if address.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account address is required")
	}
	return &Account{
		ID:        accountID,
		MemberID:  memberID,
		Address:   address,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
