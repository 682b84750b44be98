package domain

import "time"

type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// IsValid reports whether the role is known
func (r MemberRole) IsValid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// UserProfile describes the device owner
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FamilyMember is one participant of a family group
type FamilyMember struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  *string    `json:"email,omitempty"`
	Avatar *string    `json:"avatar,omitempty"`
	Role   MemberRole `json:"role"`
}

// FamilySharing is the family group the ledger is shared with
type FamilySharing struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	InviteCode string         `json:"inviteCode"`
	Members    []FamilyMember `json:"members"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AdminCount returns the number of members with the admin role
func (f FamilySharing) AdminCount() int {
	n := 0
	for _, m := range f.Members {
		if m.Role == MemberRoleAdmin {
			n++
		}
	}
	return n
}
