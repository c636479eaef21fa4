package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountID(t *testing.T) {
	assert.Equal(t, AccountID("IGAN-1000"), NewAccountID(1000))
	assert.Equal(t, AccountID("IGAN-1001"), NewAccountID(1001))
}

func TestParseAccountID(t *testing.T) {
	t.Run("accepts canonical form", func(t *testing.T) {
		got, err := ParseAccountID("IGAN-1000")
		require.NoError(t, err)
		assert.Equal(t, AccountID("IGAN-1000"), got)
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		for _, s := range []string{"", "IGAN-", "IGAN-abc", "1000", "igan-1000", "IGAN-999"} {
			_, err := ParseAccountID(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestRoleBitset(t *testing.T) {
	t.Run("membership", func(t *testing.T) {
		r := RoleRefiner.Union(RoleMinter)
		assert.True(t, r.Has(RoleRefiner))
		assert.True(t, r.Has(RoleMinter))
		assert.False(t, r.Has(RolePlatform))
		assert.True(t, r.HasAny(RoleMinter|RoleCustodian))
		assert.False(t, r.HasAny(RolePlatform|RoleGovernance))
	})

	t.Run("combined Has requires all bits", func(t *testing.T) {
		r := RoleRefiner
		assert.False(t, r.Has(RoleRefiner|RoleMinter))
	})

	t.Run("bit positions are stable", func(t *testing.T) {
		assert.Equal(t, Role(1), RoleRefiner)
		assert.Equal(t, Role(2), RoleMinter)
		assert.Equal(t, Role(4), RoleCustodian)
		assert.Equal(t, Role(8), RoleVaultOperator)
		assert.Equal(t, Role(16), RoleLogistics)
		assert.Equal(t, Role(32), RoleAuditor)
		assert.Equal(t, Role(64), RolePlatform)
		assert.Equal(t, Role(128), RoleGovernance)
	})

	t.Run("parse round trip", func(t *testing.T) {
		assert.Equal(t, RoleCustodian, ParseRole("custodian"))
		assert.Equal(t, RoleNone, ParseRole("bogus"))
	})
}

func TestMemberStatus(t *testing.T) {
	st, err := ParseMemberStatus("ACTIVE")
	require.NoError(t, err)
	assert.True(t, st.IsActive())

	st, err = ParseMemberStatus("SUSPENDED")
	require.NoError(t, err)
	assert.False(t, st.IsActive())

	_, err = ParseMemberStatus("active")
	assert.Error(t, err)
}
