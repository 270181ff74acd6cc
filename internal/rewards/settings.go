package rewards

import (
	"time"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// Settings is an immutable snapshot of the reward policy. Each sweep tick and
// each resolver call captures one snapshot; a config or catalog reload swaps
// in a fresh value instead of mutating shared state mid-operation.
type Settings struct {
	// Rate is the money credited per valid invite.
	Rate int64

	// Hold is the quarantine between a join and credit eligibility.
	Hold time.Duration

	// MinAccountAge disqualifies accounts younger than this at maturity.
	MinAccountAge time.Duration

	// RequireRoleID, when set, gates crediting on the joined member carrying
	// this role. Empty disables the gate.
	RequireRoleID string

	// AutoKickNoRole removes members who still lack the required role once
	// KickAfter has elapsed since their join.
	AutoKickNoRole bool
	KickAfter      time.Duration

	// RecheckWindow is how far eligibility is pushed when the role gate
	// fails without triggering a kick.
	RecheckWindow time.Duration

	// RedeemEnabled switches the redemption engine on.
	RedeemEnabled bool

	// OrderPrefix prefixes generated order numbers.
	OrderPrefix string

	// Catalog is the current redemption catalog. May be empty, never nil
	// checks are required: Catalog methods are nil-safe.
	Catalog *domain.Catalog
}
