package domain

import "strings"

// Role is a bitset over the closed set of participant roles. Bit positions
// match the authorization registry's role mask and are stable identifiers;
// do not reorder.
type Role uint8

const (
	RoleRefiner Role = 1 << iota
	RoleMinter
	RoleCustodian
	RoleVaultOperator
	RoleLogistics
	RoleAuditor
	RolePlatform
	RoleGovernance
)

// RoleNone is the empty role set.
const RoleNone Role = 0

// AssetOperators are the roles allowed to drive custody status changes
// alongside the token's owner of record.
const AssetOperators = RoleCustodian | RoleVaultOperator | RoleLogistics

var roleNames = map[Role]string{
	RoleRefiner:       "refiner",
	RoleMinter:        "minter",
	RoleCustodian:     "custodian",
	RoleVaultOperator: "vault_operator",
	RoleLogistics:     "logistics",
	RoleAuditor:       "auditor",
	RolePlatform:      "platform",
	RoleGovernance:    "governance",
}

// Has reports whether r contains every role in want. For a combined want
// (e.g. RoleRefiner|RoleMinter) use HasAny when one suffices.
func (r Role) Has(want Role) bool {
	return r&want == want
}

// HasAny reports whether r contains at least one of the roles in want.
func (r Role) HasAny(want Role) bool {
	return r&want != 0
}

// Union combines two role sets.
func (r Role) Union(other Role) Role {
	return r | other
}

// ParseRole maps a registry role name to its bit. Unknown names map to
// RoleNone so a stale claim never grants anything.
func ParseRole(s string) Role {
	for bit, name := range roleNames {
		if name == s {
			return bit
		}
	}
	return RoleNone
}

// String renders the set as a comma-joined list of role names, for logs.
func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	var parts []string
	for bit := RoleRefiner; bit != 0; bit <<= 1 {
		if r&bit != 0 {
			parts = append(parts, roleNames[bit])
		}
	}
	return strings.Join(parts, ",")
}
