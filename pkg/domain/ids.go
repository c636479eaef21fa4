package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifiers in this system are opaque strings with externally visible
// formats. They are kept as distinct types so a member id can never be passed
// where an account id is expected.

// AccountID identifies a gold account in the ledger ("IGAN-1000", "IGAN-1001", ...).
type AccountID string

// accountIDPrefix is the external IGAN format prefix. Account numbers start
// at 1000 and are never reused.
const accountIDPrefix = "IGAN-"

// FirstAccountNumber is the number assigned to the first account ever created.
const FirstAccountNumber = 1000

// NewAccountID renders an account number in the external IGAN format.
func NewAccountID(n uint64) AccountID {
	return AccountID(accountIDPrefix + strconv.FormatUint(n, 10))
}

// ParseAccountID validates the IGAN format and returns the typed id.
func ParseAccountID(s string) (AccountID, error) {
	rest, ok := strings.CutPrefix(s, accountIDPrefix)
	if !ok {
		return "", fmt.Errorf("account id %q does not match IGAN format", s)
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return "", fmt.Errorf("account id %q does not match IGAN format", s)
	}
	if n < FirstAccountNumber {
		return "", fmt.Errorf("account id %q below first assigned number", s)
	}
	return AccountID(s), nil
}

func (a AccountID) String() string { return string(a) }
func (a AccountID) IsNil() bool    { return a == "" }

// MemberID identifies a registered participant (GIC) in the authorization
// registry. The registry owns the format; the core treats it as opaque.
type MemberID string

func (m MemberID) String() string { return string(m) }
func (m MemberID) IsNil() bool    { return m == "" }

// Address is an actor address as presented to authorization checks and
// blacklist lookups.
type Address string

func (a Address) String() string { return string(a) }
func (a Address) IsNil() bool    { return a == "" }

// TokenID identifies a minted asset token. Allocated sequentially at mint.
type TokenID string

// NewTokenID renders a token number in the external format.
func NewTokenID(n uint64) TokenID {
	return TokenID("GBT-" + strconv.FormatUint(n, 10))
}

func (t TokenID) String() string { return string(t) }
func (t TokenID) IsNil() bool    { return t == "" }

// WarrantID is the external warrant certificate id linked to a token at mint.
// Globally unique across all tokens ever minted; serial+refiner duplication
// is permitted, warrant duplication is not.
type WarrantID string

func (w WarrantID) String() string { return string(w) }
func (w WarrantID) IsNil() bool    { return w == "" }

// OrderRef is the caller-supplied transaction reference of a settlement
// order. Consumed permanently on creation.
type OrderRef string

func (o OrderRef) String() string { return string(o) }
func (o OrderRef) IsNil() bool    { return o == "" }
