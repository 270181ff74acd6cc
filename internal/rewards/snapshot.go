package rewards

import (
	"sync"

	"github.com/atlantisbot/atlantis-ledger/internal/platform"
)

// snapshotCache holds the last-seen invite use counts per community.
// Purely in memory: after a restart the first resolve seeds the cache and
// attributes nothing, which is the accepted cold-start behavior.
type snapshotCache struct {
	mu          sync.Mutex
	byCommunity map[string]map[string]int // communityID -> code -> uses
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{byCommunity: make(map[string]map[string]int)}
}

// Swap replaces the community's snapshot with the given invite list and
// returns the previous code→uses map. A community never seen before returns
// an empty map, so every code reads as previously zero.
func (c *snapshotCache) Swap(communityID string, invites []platform.Invite) map[string]int {
	next := make(map[string]int, len(invites))
	for _, inv := range invites {
		next[inv.Code] = inv.Uses
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.byCommunity[communityID]
	c.byCommunity[communityID] = next

	if prev == nil {
		return map[string]int{}
	}
	return prev
}
