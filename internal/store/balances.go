package store

import (
	"fmt"
	"sort"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// GetBalance returns the balance for a (community, user) pair. A user with no
// history gets a zero-valued balance rather than an error, matching the
// lazy-creation model: balances exist the moment anyone asks about them.
func (s *Store) GetBalance(communityID, userID string) (*domain.Balance, error) {
	var balance domain.Balance
	err := s.get(compositeKey(balancePrefix, communityID, userID), &balance)
	if isNotFound(err) {
		return &domain.Balance{CommunityID: communityID, UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &balance, nil
}

// Credit adds amount to the user's money and bumps the invite counter.
func (s *Store) Credit(communityID, userID string, amount int64) (*domain.Balance, error) {
	unlock := s.lockCommunity(communityID)
	defer unlock()

	balance, err := s.GetBalance(communityID, userID)
	if err != nil {
		return nil, err
	}

	balance.Money += amount
	balance.Invites++

	if err := s.set(compositeKey(balancePrefix, communityID, userID), balance); err != nil {
		return nil, fmt.Errorf("save balance: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount from the user's money. The result may go negative;
// callers that want a funds check (redemption) must perform it before calling
// Debit under their own serialization.
func (s *Store) Debit(communityID, userID string, amount int64) (*domain.Balance, error) {
	unlock := s.lockCommunity(communityID)
	defer unlock()

	balance, err := s.GetBalance(communityID, userID)
	if err != nil {
		return nil, err
	}

	balance.Money -= amount

	if err := s.set(compositeKey(balancePrefix, communityID, userID), balance); err != nil {
		return nil, fmt.Errorf("save balance: %w", err)
	}
	return balance, nil
}

// Refund adds amount back to the user's money without touching the invite
// counters. Compensates a redemption debit whose order failed to persist.
func (s *Store) Refund(communityID, userID string, amount int64) (*domain.Balance, error) {
	unlock := s.lockCommunity(communityID)
	defer unlock()

	balance, err := s.GetBalance(communityID, userID)
	if err != nil {
		return nil, err
	}

	balance.Money += amount

	if err := s.set(compositeKey(balancePrefix, communityID, userID), balance); err != nil {
		return nil, fmt.Errorf("save balance: %w", err)
	}
	return balance, nil
}

// ListBalances returns every balance in a community, richest first.
// Ties on money break by invite count, then by user ID for stable output.
func (s *Store) ListBalances(communityID string) ([]*domain.Balance, error) {
	var balances []*domain.Balance
	prefix := balancePrefix + communityID + ":"

	err := scanPrefix(s, prefix, func(b *domain.Balance) {
		balances = append(balances, b)
	})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Money != balances[j].Money {
			return balances[i].Money > balances[j].Money
		}
		if balances[i].Invites != balances[j].Invites {
			return balances[i].Invites > balances[j].Invites
		}
		return balances[i].UserID < balances[j].UserID
	})
	return balances, nil
}
