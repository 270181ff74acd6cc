package domain

// Balance holds the durable per-(community, user) invite reward counters.
// Created lazily on first credit or debit; never deleted.
//
// Money may go negative after a leave reversal that exceeds the current
// balance. Reversals are never blocked: the counters must stay consistent
// with the credit history even when the member already spent the reward.
type Balance struct {
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
	Money       int64  `json:"money"`
	Invites     int    `json:"invites"`
	Leaves      int    `json:"leaves"`
}
