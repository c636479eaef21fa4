package models

import (
	"time"

	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
)

// Status is the custody lifecycle state of an asset token.
//
// REGISTERED → {IN_VAULT, IN_TRANSIT, PLEDGED} → … → BURNED (terminal).
// IN_TRANSIT and PLEDGED are the locked states: while locked, ordinary and
// forced transfers are refused; only settlement execution may move the token.
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusInVault    Status = "IN_VAULT"
	StatusInTransit  Status = "IN_TRANSIT"
	StatusPledged    Status = "PLEDGED"
	StatusBurned     Status = "BURNED"
)

// ParseStatus validates and returns a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusRegistered, StatusInVault, StatusInTransit, StatusPledged, StatusBurned:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown asset status: %s", s)
	}
}

// IsLocked reports whether the status blocks ordinary ownership transfer.
// Lock status is a pure function of current state.
func (s Status) IsLocked() bool {
	return s == StatusInTransit || s == StatusPledged
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusBurned
}

func (s Status) String() string { return string(s) }

// FinenessScale is the basis for fineness values (9999 = 99.99%).
const FinenessScale = 10_000

// FineWeight derives the fine gold content from gross weight and fineness.
// Integer division, truncated: the ledger never rounds up.
func FineWeight(weightGrams, fineness int64) int64 {
	return weightGrams * fineness / FinenessScale
}

// Asset is a tokenized physical gold bar.
//
// Invariants:
//   - WarrantID is globally unique across all tokens ever minted
//     (serial+refiner duplication is permitted)
//   - MintAccountID is set at mint and never changes; burn debits this
//     account regardless of what the burn caller supplies
//   - Status BURNED is terminal
type Asset struct {
	ID          id.TokenID   `json:"id"`
	Serial      string       `json:"serial"`
	Refiner     string       `json:"refiner"`
	WeightGrams int64        `json:"weight_grams"`
	Fineness    int64        `json:"fineness"`
	FineWeight  int64        `json:"fine_weight"`
	ProductType string       `json:"product_type"`
	CertHash    string       `json:"cert_hash"`
	MemberID    id.MemberID  `json:"member_id"`
	Certified   bool         `json:"certified"`
	WarrantID   id.WarrantID `json:"warrant_id"`
	Owner       id.Address   `json:"owner"`
	Status      Status       `json:"status"`
	// MintAccountID is the ledger anchor credited at mint and debited at burn.
	MintAccountID id.AccountID `json:"mint_account_id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CanTransition checks that the asset is not in a terminal state.
func (a *Asset) CanTransition() error {
	if a.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "asset is burned")
	}
	return nil
}

// ApplyStatus records a new custody status. Call CanTransition first.
func (a *Asset) ApplyStatus(status Status, now time.Time) {
	a.Status = status
	a.UpdatedAt = now
}

// CanTransfer checks the custody lock for the ordinary transfer paths.
// Settlement execution deliberately skips this check.
func (a *Asset) CanTransfer() error {
	if err := a.CanTransition(); err != nil {
		return err
	}
	if a.Status.IsLocked() {
		return dErrors.Newf(dErrors.CodeInvalidState, "asset is locked in %s", a.Status)
	}
	return nil
}

// ApplyOwner reassigns the owner of record. Call the relevant Can* first.
func (a *Asset) ApplyOwner(owner id.Address, now time.Time) {
	a.Owner = owner
	a.UpdatedAt = now
}

// MintParams carries the mint operation's inputs.
type MintParams struct {
	Owner       id.Address
	AccountID   id.AccountID
	Serial      string
	Refiner     string
	WeightGrams int64
	Fineness    int64
	ProductType string
	CertHash    string
	MemberID    id.MemberID
	Certified   bool
	WarrantID   id.WarrantID
}

func NewAsset(tokenID id.TokenID, p MintParams, now time.Time) (*Asset, error) {
	if tokenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token id is required")
	}
	if p.Owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner is required")
	}
	if p.AccountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mint account id is required")
	}
	if p.WarrantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "warrant id is required")
	}
	if p.WeightGrams <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "weight must be positive")
	}
	if p.Fineness <= 0 || p.Fineness > FinenessScale {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fineness must be in (0, 10000]")
	}
	return &Asset{
		ID:            tokenID,
		Serial:        p.Serial,
		Refiner:       p.Refiner,
		WeightGrams:   p.WeightGrams,
		Fineness:      p.Fineness,
		FineWeight:    FineWeight(p.WeightGrams, p.Fineness),
		ProductType:   p.ProductType,
		CertHash:      p.CertHash,
		MemberID:      p.MemberID,
		Certified:     p.Certified,
		WarrantID:     p.WarrantID,
		Owner:         p.Owner,
		Status:        StatusRegistered,
		MintAccountID: p.AccountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
