package rewards

import (
	"context"
	"log/slog"

	"github.com/atlantisbot/atlantis-ledger/internal/platform"
)

// Attribution is the outcome of tracing a join to an invite link.
// The zero value means the join could not be attributed.
type Attribution struct {
	InviterID string
	Code      string
}

// Attributed reports whether an inviter was identified.
func (a Attribution) Attributed() bool {
	return a.InviterID != ""
}

// Resolver attributes joins by diffing invite use counts against the last
// snapshot. One resolver serves all communities.
type Resolver struct {
	gateway platform.Gateway
	cache   *snapshotCache
	logger  *slog.Logger
}

// NewResolver creates a resolver with an empty snapshot cache.
func NewResolver(gateway platform.Gateway, logger *slog.Logger) *Resolver {
	return &Resolver{
		gateway: gateway,
		cache:   newSnapshotCache(),
		logger:  logger,
	}
}

// Resolve fetches the community's current invites and returns the inviter
// whose link use count strictly increased since the previous snapshot. The
// first increased code in enumeration order wins; two joins racing on
// different links is an accepted imprecision.
//
// A successful fetch always replaces the snapshot, attributed or not. A
// failed fetch keeps the old snapshot so the increment is still visible to
// the next join, and resolves to no attribution.
func (r *Resolver) Resolve(ctx context.Context, communityID string) Attribution {
	invites, err := r.gateway.FetchInvites(ctx, communityID)
	if err != nil {
		r.logger.Warn("Invite fetch failed, join will be unattributed",
			"community_id", communityID, "error", err)
		return Attribution{}
	}

	prev := r.cache.Swap(communityID, invites)

	for _, inv := range invites {
		if inv.Uses > prev[inv.Code] {
			// A vanity link has no owner; the join stays unattributed.
			return Attribution{InviterID: inv.InviterID, Code: inv.Code}
		}
	}
	return Attribution{}
}
