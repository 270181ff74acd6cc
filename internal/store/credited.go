package store

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// GetCredited returns the credited record for a joined user.
func (s *Store) GetCredited(communityID, joinedUserID string) (*domain.CreditedRecord, error) {
	var rec domain.CreditedRecord
	err := s.get(compositeKey(creditedPrefix, communityID, joinedUserID), &rec)
	if isNotFound(err) {
		return nil, ErrCreditedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credited: %w", err)
	}
	return &rec, nil
}

// ListCreditedByInviter returns a community's credited records attributed to
// the given inviter.
func (s *Store) ListCreditedByInviter(communityID, inviterID string) ([]*domain.CreditedRecord, error) {
	var records []*domain.CreditedRecord
	prefix := creditedPrefix + communityID + ":"

	err := scanPrefix(s, prefix, func(r *domain.CreditedRecord) {
		if r.InviterID == inviterID {
			records = append(records, r)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list credited by inviter: %w", err)
	}
	return records, nil
}

// PromotePending turns a matured pending credit into a reward. In a single
// transaction it credits the inviter's balance, writes the credited record,
// refreshes the inviter map, and deletes the pending entry. Either all of it
// lands or none of it does.
func (s *Store) PromotePending(p *domain.PendingCredit, rate int64, now time.Time) (*domain.Balance, error) {
	unlock := s.lockCommunity(p.CommunityID)
	defer unlock()

	balance := &domain.Balance{CommunityID: p.CommunityID, UserID: p.InviterID}

	err := s.db.Update(func(txn *badger.Txn) error {
		balanceKey := compositeKey(balancePrefix, p.CommunityID, p.InviterID)
		if err := txnGet(txn, balanceKey, balance); err != nil && !isNotFound(err) {
			return err
		}
		balance.Money += rate
		balance.Invites++
		if err := txnSet(txn, balanceKey, balance); err != nil {
			return err
		}

		rec := domain.CreditedRecord{
			CommunityID:  p.CommunityID,
			JoinedUserID: p.JoinedUserID,
			InviterID:    p.InviterID,
			CreditedAt:   now,
			Rate:         rate,
		}
		creditedKey := compositeKey(creditedPrefix, p.CommunityID, p.JoinedUserID)
		if err := txnSet(txn, creditedKey, rec); err != nil {
			return err
		}

		inviterKey := compositeKey(inviterPrefix, p.CommunityID, p.JoinedUserID)
		if err := txnSet(txn, inviterKey, inviterEntry{InviterID: p.InviterID}); err != nil {
			return err
		}

		return txn.Delete(compositeKey(pendingPrefix, p.CommunityID, p.JoinedUserID))
	})
	if err != nil {
		return nil, fmt.Errorf("promote pending: %w", err)
	}
	return balance, nil
}

// ReverseCredit undoes a credited join after the member leaves. In a single
// transaction it debits the recorded rate from the inviter, counts the leave,
// and deletes the credited record. The invite counter stays: it tracks how
// many invites were ever credited, with leaves tallied alongside. Returns the
// reversed record and the inviter's updated balance, or (nil, nil, nil) when
// the member was never credited and there is nothing to reverse.
//
// The debit is unconditional: the inviter's money may go negative if the
// reward was already spent.
func (s *Store) ReverseCredit(communityID, joinedUserID string) (*domain.CreditedRecord, *domain.Balance, error) {
	unlock := s.lockCommunity(communityID)
	defer unlock()

	var rec domain.CreditedRecord
	balance := &domain.Balance{CommunityID: communityID}

	err := s.db.Update(func(txn *badger.Txn) error {
		creditedKey := compositeKey(creditedPrefix, communityID, joinedUserID)
		if err := txnGet(txn, creditedKey, &rec); err != nil {
			return err
		}

		balance.UserID = rec.InviterID
		balanceKey := compositeKey(balancePrefix, communityID, rec.InviterID)
		if err := txnGet(txn, balanceKey, balance); err != nil && !isNotFound(err) {
			return err
		}
		balance.Money -= rec.Rate
		balance.Leaves++
		if err := txnSet(txn, balanceKey, balance); err != nil {
			return err
		}

		return txn.Delete(creditedKey)
	})
	if isNotFound(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reverse credit: %w", err)
	}
	return &rec, balance, nil
}
