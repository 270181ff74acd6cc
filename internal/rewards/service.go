// Package rewards implements the invite attribution and reward ledger core:
// join/leave handling, the pending-credit state machine, the reconciliation
// sweep, and the redemption engine.
package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/errors"
	"github.com/atlantisbot/atlantis-ledger/internal/money"
	"github.com/atlantisbot/atlantis-ledger/internal/platform"
	"github.com/atlantisbot/atlantis-ledger/internal/store"
	"github.com/atlantisbot/atlantis-ledger/internal/store/orders"
)

// Service coordinates the ledger, orders log, and platform gateway.
type Service struct {
	store    *store.Store
	orders   *orders.Store
	gateway  platform.Gateway
	resolver *Resolver
	format   *money.Formatter
	logger   *slog.Logger

	settings atomic.Pointer[Settings]

	// Serializes check-then-debit during redemption per community.
	redeemLocks sync.Map // communityID -> *sync.Mutex

	// Injectable for tests.
	now func() time.Time
}

// NewService creates the rewards service with the given initial settings.
func NewService(st *store.Store, ord *orders.Store, gateway platform.Gateway,
	settings *Settings, format *money.Formatter, logger *slog.Logger) *Service {

	s := &Service{
		store:    st,
		orders:   ord,
		gateway:  gateway,
		resolver: NewResolver(gateway, logger),
		format:   format,
		logger:   logger,
		now:      time.Now,
	}
	s.settings.Store(settings)
	return s
}

// Settings returns the current policy snapshot.
func (s *Service) Settings() *Settings {
	return s.settings.Load()
}

// UpdateSettings swaps in a new policy snapshot. In-flight operations keep
// the snapshot they captured.
func (s *Service) UpdateSettings(settings *Settings) {
	s.settings.Store(settings)
	s.logger.Info("Reward settings updated",
		"rate", settings.Rate,
		"hold", settings.Hold,
		"redeem_enabled", settings.RedeemEnabled,
		"catalog_services", len(settings.catalogServices()))
}

func (st *Settings) catalogServices() []domain.Service {
	if st.Catalog == nil {
		return nil
	}
	return st.Catalog.Services
}

// OnJoin records a join: resolves attribution against the invite snapshot
// and opens a pending credit that matures after the hold period. A repeat
// join for the same user replaces the previous entry.
func (s *Service) OnJoin(ctx context.Context, communityID, userID string) (*domain.PendingCredit, error) {
	settings := s.Settings()
	now := s.now()

	att := s.resolver.Resolve(ctx, communityID)

	p := &domain.PendingCredit{
		CommunityID:  communityID,
		JoinedUserID: userID,
		InviterID:    att.InviterID,
		InviteCode:   att.Code,
		JoinedAt:     now,
		EligibleAt:   now.Add(settings.Hold),
	}
	if err := s.store.PutPending(p); err != nil {
		return nil, errors.Internal("failed to record join", err)
	}

	s.logger.Info("Join recorded",
		"community_id", communityID,
		"user_id", userID,
		"inviter_id", att.InviterID,
		"invite_code", att.Code,
		"eligible_at", p.EligibleAt)

	if att.Attributed() {
		_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
			"Join: <@%s> invited by <@%s>, credit held for %s",
			userID, att.InviterID, settings.Hold))
	} else {
		_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
			"Join: <@%s>, inviter unknown", userID))
	}
	return p, nil
}

// OnLeave handles a member leaving. A leave during quarantine cancels the
// pending credit; a leave after crediting reverses it, debiting the recorded
// rate from the inviter and counting the leave.
func (s *Service) OnLeave(ctx context.Context, communityID, userID string) error {
	p, err := s.store.GetPending(communityID, userID)
	if err == nil {
		if err := s.store.DeletePending(communityID, userID); err != nil {
			return errors.Internal("failed to cancel pending credit", err)
		}
		s.logger.Info("Pending credit canceled on leave",
			"community_id", communityID, "user_id", userID)

		if p.Attributed() {
			_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
				"Left during hold: <@%s>, pending credit for <@%s> canceled",
				userID, p.InviterID))
		} else {
			_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
				"Left during hold: <@%s>", userID))
		}
		return nil
	}
	if !errors.Is(err, store.ErrPendingNotFound) {
		return errors.Internal("failed to look up pending credit", err)
	}

	rec, balance, err := s.store.ReverseCredit(communityID, userID)
	if err != nil {
		return errors.Internal("failed to reverse credit", err)
	}
	if rec == nil {
		// Never credited; nothing to undo.
		return nil
	}

	s.logger.Info("Credit reversed on leave",
		"community_id", communityID,
		"user_id", userID,
		"inviter_id", rec.InviterID,
		"rate", rec.Rate,
		"inviter_money", balance.Money)

	_ = s.gateway.EmitLog(ctx, communityID, fmt.Sprintf(
		"Invited member <@%s> left, %s removed from <@%s>",
		userID, s.format.Format(rec.Rate), rec.InviterID))
	return nil
}

// GetBalance returns a user's balance, zero-valued if they have no history.
func (s *Service) GetBalance(communityID, userID string) (*domain.Balance, error) {
	balance, err := s.store.GetBalance(communityID, userID)
	if err != nil {
		return nil, errors.Internal("failed to load balance", err)
	}
	return balance, nil
}

// GetTop returns up to limit balances ordered by money desc, invites desc.
func (s *Service) GetTop(communityID string, limit int) ([]*domain.Balance, error) {
	balances, err := s.store.ListBalances(communityID)
	if err != nil {
		return nil, errors.Internal("failed to list balances", err)
	}
	if limit > 0 && len(balances) > limit {
		balances = balances[:limit]
	}
	return balances, nil
}

// Rewards is the per-inviter breakdown of in-flight and completed credits.
type Rewards struct {
	Pending  []*domain.PendingCredit  `json:"pending"`
	Credited []*domain.CreditedRecord `json:"credited"`
}

// GetRewards returns the pending and credited entries attributed to an inviter.
func (s *Service) GetRewards(communityID, inviterID string) (*Rewards, error) {
	pending, err := s.store.ListPendingByInviter(communityID, inviterID)
	if err != nil {
		return nil, errors.Internal("failed to list pending credits", err)
	}
	credited, err := s.store.ListCreditedByInviter(communityID, inviterID)
	if err != nil {
		return nil, errors.Internal("failed to list credited records", err)
	}
	return &Rewards{Pending: pending, Credited: credited}, nil
}

// InviterOf returns the last known inviter of a member.
func (s *Service) InviterOf(communityID, userID string) (string, error) {
	inviterID, err := s.store.InviterOf(communityID, userID)
	if errors.Is(err, store.ErrInviterNotFound) {
		return "", errors.NotFound("no inviter on record for this member")
	}
	if err != nil {
		return "", errors.Internal("failed to look up inviter", err)
	}
	return inviterID, nil
}

func (s *Service) lockRedeem(communityID string) func() {
	v, _ := s.redeemLocks.LoadOrStore(communityID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
