package domain

import "fmt"

// MemberStatus is the lifecycle status of a member in the authorization
// registry. Only ACTIVE members may open accounts.
type MemberStatus string

const (
	MemberPending    MemberStatus = "PENDING"
	MemberActive     MemberStatus = "ACTIVE"
	MemberSuspended  MemberStatus = "SUSPENDED"
	MemberTerminated MemberStatus = "TERMINATED"
)

// ParseMemberStatus validates and returns a MemberStatus.
func ParseMemberStatus(s string) (MemberStatus, error) {
	switch st := MemberStatus(s); st {
	case MemberPending, MemberActive, MemberSuspended, MemberTerminated:
		return st, nil
	default:
		return "", fmt.Errorf("unknown member status: %s", s)
	}
}

func (s MemberStatus) String() string { return string(s) }

// IsActive reports whether the member may participate in new operations.
func (s MemberStatus) IsActive() bool { return s == MemberActive }
