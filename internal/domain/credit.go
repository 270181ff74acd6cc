package domain

import "time"

// PendingCredit is a join held in quarantine before it becomes a reward.
// Exactly one exists per (community, joined user); a repeat join for the
// same user overwrites the previous entry (last join wins).
type PendingCredit struct {
	CommunityID    string    `json:"community_id"`
	JoinedUserID   string    `json:"joined_user_id"`
	InviterID      string    `json:"inviter_id,omitempty"`
	InviteCode     string    `json:"invite_code,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
	EligibleAt     time.Time `json:"eligible_at"`
	NotifiedTooNew bool      `json:"notified_too_new,omitempty"`
}

// Attributed reports whether the join was traced back to an inviter.
// Unattributed joins are still tracked so a later leave cancels them cleanly.
func (p *PendingCredit) Attributed() bool {
	return p.InviterID != ""
}

// SelfInvite reports whether the member joined through their own invite link.
// Self-invites never mature into a credit.
func (p *PendingCredit) SelfInvite() bool {
	return p.InviterID != "" && p.InviterID == p.JoinedUserID
}

// Mature reports whether the hold period has elapsed at the given time.
func (p *PendingCredit) Mature(now time.Time) bool {
	return !now.Before(p.EligibleAt)
}

// CreditedRecord marks a completed credit for a joined member.
// Written exactly once when a PendingCredit matures and passes all gates.
// Immutable except for deletion, which happens only on leave reversal.
type CreditedRecord struct {
	CommunityID  string    `json:"community_id"`
	JoinedUserID string    `json:"joined_user_id"`
	InviterID    string    `json:"inviter_id"`
	CreditedAt   time.Time `json:"credited_at"`
	// Rate is the amount credited at promotion time. The reversal debits
	// this recorded value, not the current configured rate.
	Rate int64 `json:"rate"`
}
