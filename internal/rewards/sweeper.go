package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/platform"
)

// Sweeper drives the periodic reconciliation pass over all pending credits.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger

	// Guards against a slow sweep overlapping the next tick.
	running atomic.Bool
}

// NewSweeper creates a sweeper ticking at the given interval.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is canceled. A tick that arrives while the
// previous sweep is still in flight is skipped, never queued.
func (sw *Sweeper) Run(ctx context.Context) {
	sw.logger.Info("Reconciliation sweeper started", "interval", sw.interval)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Reconciliation sweeper stopped")
			return
		case <-ticker.C:
			if !sw.running.CompareAndSwap(false, true) {
				sw.logger.Warn("Previous sweep still running, skipping tick")
				continue
			}
			sw.Sweep(ctx)
			sw.running.Store(false)
		}
	}
}

// Sweep walks every pending credit once, applying the promotion gates.
// A single entry failing never aborts the rest of the pass, and each
// entry's outcome is persisted before the next entry is examined.
func (sw *Sweeper) Sweep(ctx context.Context) {
	sweepID := uuid.NewString()
	settings := sw.service.Settings()
	now := sw.service.now()

	entries, err := sw.service.store.ListPending()
	if err != nil {
		sw.logger.Error("Sweep aborted, pending list unreadable",
			"sweep_id", sweepID, "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	sw.logger.Debug("Sweep started", "sweep_id", sweepID, "pending", len(entries))

	var credited, discarded, extended int
	for _, p := range entries {
		if ctx.Err() != nil {
			return
		}

		outcome, err := sw.sweepOne(ctx, p, settings, now)
		if err != nil {
			sw.logger.Warn("Sweep entry failed, will retry next tick",
				"sweep_id", sweepID,
				"community_id", p.CommunityID,
				"user_id", p.JoinedUserID,
				"error", err)
			continue
		}
		switch outcome {
		case outcomeCredited:
			credited++
		case outcomeDiscarded:
			discarded++
		case outcomeExtended:
			extended++
		}
	}

	if credited+discarded+extended > 0 {
		sw.logger.Info("Sweep finished",
			"sweep_id", sweepID,
			"credited", credited,
			"discarded", discarded,
			"extended", extended)
	}
}

type sweepOutcome int

const (
	outcomeSkipped sweepOutcome = iota
	outcomeCredited
	outcomeDiscarded
	outcomeExtended
)

// sweepOne runs one pending credit through the gates, in order: maturity,
// member still present, account age, required role, inviter validity.
func (sw *Sweeper) sweepOne(ctx context.Context, p *domain.PendingCredit, settings *Settings, now time.Time) (sweepOutcome, error) {
	if !p.Mature(now) {
		return outcomeSkipped, nil
	}

	member, err := sw.service.gateway.FetchMember(ctx, p.CommunityID, p.JoinedUserID)
	if err != nil {
		// Platform unreachable; the entry stays for the next tick.
		return outcomeSkipped, err
	}
	if member == nil {
		// Left before maturity without a leave event reaching us.
		return sw.discard(p, "member gone")
	}

	if settings.MinAccountAge > 0 && now.Sub(member.CreatedAt) < settings.MinAccountAge {
		// One-way disqualification: the account aging past the threshold
		// later never resurrects the credit.
		if !p.NotifiedTooNew {
			_ = sw.service.gateway.EmitLog(ctx, p.CommunityID, fmt.Sprintf(
				"No credit for inviting <@%s>: account too new", p.JoinedUserID))
			p.NotifiedTooNew = true
			if err := sw.service.store.UpdatePending(p); err != nil {
				return outcomeSkipped, err
			}
		}
		return sw.discard(p, "account too new")
	}

	if settings.RequireRoleID != "" && !member.HasRole(settings.RequireRoleID) {
		return sw.roleGate(ctx, p, member, settings, now)
	}

	if !p.Attributed() {
		return sw.discard(p, "unattributed join")
	}
	if p.SelfInvite() {
		return sw.discard(p, "self-invite")
	}

	balance, err := sw.service.store.PromotePending(p, settings.Rate, now)
	if err != nil {
		return outcomeSkipped, err
	}

	sw.service.logger.Info("Invite credited",
		"community_id", p.CommunityID,
		"joined_user_id", p.JoinedUserID,
		"inviter_id", p.InviterID,
		"rate", settings.Rate,
		"inviter_money", balance.Money)

	_ = sw.service.gateway.EmitLog(ctx, p.CommunityID, fmt.Sprintf(
		"<@%s> earned %s for inviting <@%s>",
		p.InviterID, sw.service.format.Format(settings.Rate), p.JoinedUserID))

	return outcomeCredited, nil
}

// roleGate handles a mature entry whose member lacks the required role:
// kick and discard once the grace period is exhausted, otherwise push
// eligibility forward and keep waiting.
func (sw *Sweeper) roleGate(ctx context.Context, p *domain.PendingCredit, member *platform.Member, settings *Settings, now time.Time) (sweepOutcome, error) {
	if settings.AutoKickNoRole && now.Sub(p.JoinedAt) > settings.KickAfter {
		if err := sw.service.gateway.KickMember(ctx, p.CommunityID, member.ID, "did not take the member role"); err != nil {
			sw.service.logger.Warn("Kick failed",
				"community_id", p.CommunityID, "user_id", member.ID, "error", err)
		} else {
			_ = sw.service.gateway.EmitLog(ctx, p.CommunityID, fmt.Sprintf(
				"Kick: <@%s> never took the member role", member.ID))
		}
		return sw.discard(p, "kicked without role")
	}

	p.EligibleAt = now.Add(settings.RecheckWindow)
	if err := sw.service.store.UpdatePending(p); err != nil {
		return outcomeSkipped, err
	}

	sw.service.logger.Debug("Role gate extended hold",
		"community_id", p.CommunityID,
		"user_id", p.JoinedUserID,
		"eligible_at", p.EligibleAt)
	return outcomeExtended, nil
}

func (sw *Sweeper) discard(p *domain.PendingCredit, reason string) (sweepOutcome, error) {
	if err := sw.service.store.DeletePending(p.CommunityID, p.JoinedUserID); err != nil {
		return outcomeSkipped, err
	}
	sw.service.logger.Info("Pending credit discarded",
		"community_id", p.CommunityID,
		"user_id", p.JoinedUserID,
		"reason", reason)
	return outcomeDiscarded, nil
}
