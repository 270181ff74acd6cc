package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// inviterEntry is the value under `inviter:<community>:<user>`: the last
// known inviter of a member, kept even after the pending entry is gone so
// "who invited X" stays answerable.
type inviterEntry struct {
	InviterID string `json:"inviter_id"`
}

// PutPending upserts the pending credit for the joined user. When the join is
// attributed, the inviter map entry is written in the same transaction so the
// two can never disagree. A repeat join overwrites the previous entry.
func (s *Store) PutPending(p *domain.PendingCredit) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := compositeKey(pendingPrefix, p.CommunityID, p.JoinedUserID)
		if err := txnSet(txn, key, p); err != nil {
			return err
		}

		if p.Attributed() {
			inviterKey := compositeKey(inviterPrefix, p.CommunityID, p.JoinedUserID)
			return txnSet(txn, inviterKey, inviterEntry{InviterID: p.InviterID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put pending: %w", err)
	}
	return nil
}

// GetPending returns the pending credit for a joined user.
func (s *Store) GetPending(communityID, joinedUserID string) (*domain.PendingCredit, error) {
	var p domain.PendingCredit
	err := s.get(compositeKey(pendingPrefix, communityID, joinedUserID), &p)
	if isNotFound(err) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending: %w", err)
	}
	return &p, nil
}

// UpdatePending rewrites an existing pending credit in place. Used by the
// sweep to persist gate decisions (hold extension, too-new notification)
// entry by entry so a crash mid-sweep loses at most the current member.
func (s *Store) UpdatePending(p *domain.PendingCredit) error {
	if err := s.set(compositeKey(pendingPrefix, p.CommunityID, p.JoinedUserID), p); err != nil {
		return fmt.Errorf("update pending: %w", err)
	}
	return nil
}

// DeletePending removes a pending credit, silently succeeding if it is
// already gone. The inviter map entry stays: a discarded join still tells
// us who brought the member in.
func (s *Store) DeletePending(communityID, joinedUserID string) error {
	if err := s.delete(compositeKey(pendingPrefix, communityID, joinedUserID)); err != nil {
		return fmt.Errorf("delete pending: %w", err)
	}
	return nil
}

// ListPending returns every pending credit across all communities.
// The sweep walks this list each tick.
func (s *Store) ListPending() ([]*domain.PendingCredit, error) {
	var entries []*domain.PendingCredit
	err := scanPrefix(s, pendingPrefix, func(p *domain.PendingCredit) {
		entries = append(entries, p)
	})
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return entries, nil
}

// ListPendingByInviter returns a community's pending credits attributed to
// the given inviter. Feeds the per-inviter reward breakdown.
func (s *Store) ListPendingByInviter(communityID, inviterID string) ([]*domain.PendingCredit, error) {
	var entries []*domain.PendingCredit
	prefix := pendingPrefix + communityID + ":"

	err := scanPrefix(s, prefix, func(p *domain.PendingCredit) {
		if p.InviterID == inviterID {
			entries = append(entries, p)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list pending by inviter: %w", err)
	}
	return entries, nil
}

// InviterOf returns the last known inviter of a member.
func (s *Store) InviterOf(communityID, userID string) (string, error) {
	var entry inviterEntry
	err := s.get(compositeKey(inviterPrefix, communityID, userID), &entry)
	if isNotFound(err) {
		return "", ErrInviterNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get inviter: %w", err)
	}
	return entry.InviterID, nil
}
