package domain

import "time"

type MembershipType string

const (
	MembershipAdmin  MembershipType = "A"
	MembershipMember MembershipType = "M"
)

type Group struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Color string `json:"color"`
}

type GroupMembership struct {
	ID        int64          `json:"id"`
	GroupID   int64          `json:"group"`
	Username  string         `json:"username"`
	Type      MembershipType `json:"type"`
	Accepted  bool           `json:"accepted"`
	CreatedAt time.Time      `json:"-"`
}

// IsInvite reports whether the membership is still a pending invite.
func (m GroupMembership) IsInvite() bool {
	return !m.Accepted
}
