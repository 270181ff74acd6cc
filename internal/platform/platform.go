// Package platform defines the narrow surface the ledger core consumes from
// the chat-platform presentation process. The core never talks to the chat
// platform directly; everything flows through the Gateway interface.
package platform

import (
	"context"
	"time"
)

// Invite is one active invite link in a community.
type Invite struct {
	Code      string `json:"code"`
	Uses      int    `json:"uses"`
	InviterID string `json:"inviter_id"`
}

// Member is a community member as seen by the presentation process.
type Member struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	RoleIDs   []string  `json:"role_ids"`
}

// HasRole reports whether the member carries the given role.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Gateway is what the core needs from the chat platform.
//
// FetchMember returns (nil, nil) when the member is no longer in the
// community; an error means the platform was unreachable and the caller
// should retry on the next sweep rather than discard state.
type Gateway interface {
	FetchInvites(ctx context.Context, communityID string) ([]Invite, error)
	FetchMember(ctx context.Context, communityID, userID string) (*Member, error)
	KickMember(ctx context.Context, communityID, userID, reason string) error
	EmitLog(ctx context.Context, communityID, text string) error
}

// NoopGateway is a Gateway that sees no invites and no members.
// Used in tests and when the server runs without a presentation process.
type NoopGateway struct{}

// FetchInvites returns no invites.
func (NoopGateway) FetchInvites(context.Context, string) ([]Invite, error) { return nil, nil }

// FetchMember reports the member as gone.
func (NoopGateway) FetchMember(context.Context, string, string) (*Member, error) { return nil, nil }

// KickMember is a no-op.
func (NoopGateway) KickMember(context.Context, string, string, string) error { return nil }

// EmitLog is a no-op.
func (NoopGateway) EmitLog(context.Context, string, string) error { return nil }
