package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/sla"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

const recomputeBatch = 200

// SLAService resolves sector policies and evaluates tickets against them.
type SLAService struct {
	calc     *sla.Calculator
	policies repository.SLAPolicyRepository
	sectors  repository.SectorRepository
	tickets  repository.TicketRepository
	logger   *zap.Logger
	now      func() time.Time
}

// SLADependencies bundles repositories for the SLA service. PolicyRepo is
// normally the Redis-backed policy cache.
type SLADependencies struct {
	Calculator *sla.Calculator
	PolicyRepo repository.SLAPolicyRepository
	SectorRepo repository.SectorRepository
	TicketRepo repository.TicketRepository
	Logger     *zap.Logger
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	calc := deps.Calculator
	if calc == nil {
		calc = sla.NewCalculator(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		calc:     calc,
		policies: deps.PolicyRepo,
		sectors:  deps.SectorRepo,
		tickets:  deps.TicketRepo,
		logger:   logger,
		now:      utcNow,
	}
}

// PolicyView is a sector's stored policy together with the hours that
// actually apply to each level.
type PolicyView struct {
	SectorID  string
	Policy    *domain.SLAPolicy
	Effective map[domain.CriticalityLevel]int
	Sources   map[domain.CriticalityLevel]sla.Source
}

// Calculator exposes the deadline calculator.
func (s *SLAService) Calculator() *sla.Calculator {
	return s.calc
}

// Now returns the service clock.
func (s *SLAService) Now() time.Time {
	return s.now()
}

// PolicyFor returns the policy of sectorID, or nil when the sector has none.
func (s *SLAService) PolicyFor(ctx context.Context, sectorID string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetBySector(ctx, sectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// GetPolicy describes the policy in force for a sector.
func (s *SLAService) GetPolicy(ctx context.Context, sectorID string) (*PolicyView, error) {
	if _, err := s.sectors.GetByID(ctx, sectorID); err != nil {
		return nil, lookupErr(err, "sector", sectorID)
	}
	policy, err := s.PolicyFor(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	view := &PolicyView{
		SectorID:  sectorID,
		Policy:    policy,
		Effective: make(map[domain.CriticalityLevel]int, len(domain.Levels)),
		Sources:   make(map[domain.CriticalityLevel]sla.Source, len(domain.Levels)),
	}
	for _, lvl := range domain.Levels {
		view.Effective[lvl], view.Sources[lvl] = s.calc.Hours(lvl, policy)
	}
	return view, nil
}

// SavePolicy validates and stores a sector policy, then re-derives the
// deadlines of the sector's active tickets.
func (s *SLAService) SavePolicy(ctx context.Context, actor *domain.StaffMember, policy *domain.SLAPolicy) (*PolicyView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, apperrors.NewValidationError("policy is required", nil)
	}
	if err := sla.ValidatePolicy(policy); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"sector_id": policy.SectorID})
	}
	sector, err := s.sectors.GetByID(ctx, policy.SectorID)
	if err != nil {
		return nil, lookupErr(err, "sector", policy.SectorID)
	}
	policy.UpdatedBy = &actor.ID
	if err := s.policies.Upsert(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("sla policy saved",
		zap.String("sector_id", sector.ID),
		zap.String("mode", string(policy.Mode)),
		zap.String("actor_id", actor.ID))
	if _, err := s.RecomputeSector(ctx, sector.ID); err != nil {
		return nil, err
	}
	return s.GetPolicy(ctx, sector.ID)
}

// DeletePolicy removes a sector policy so the default table applies again.
func (s *SLAService) DeletePolicy(ctx context.Context, actor *domain.StaffMember, sectorID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.policies.Delete(ctx, sectorID); err != nil {
		return lookupErr(err, "sla_policy", sectorID)
	}
	s.logger.Info("sla policy deleted", zap.String("sector_id", sectorID), zap.String("actor_id", actor.ID))
	_, err := s.RecomputeSector(ctx, sectorID)
	return err
}

// RecomputeSector refreshes the stored due_at of every active ticket in a
// sector and returns how many changed.
func (s *SLAService) RecomputeSector(ctx context.Context, sectorID string) (int, error) {
	policy, err := s.PolicyFor(ctx, sectorID)
	if err != nil {
		return 0, err
	}
	changed := 0
	after := ""
	for {
		batch, err := s.tickets.ListActive(ctx, &sectorID, after, recomputeBatch)
		if err != nil {
			return changed, apperrors.MapError(err)
		}
		for i := range batch {
			t := &batch[i]
			due := s.calc.Deadline(t, policy).At
			if due.Equal(t.DueAt) {
				continue
			}
			if err := s.tickets.UpdateDueAt(ctx, t.ID, due); err != nil {
				return changed, apperrors.MapError(err)
			}
			changed++
		}
		if len(batch) < recomputeBatch {
			break
		}
		after = batch[len(batch)-1].ID
	}
	if changed > 0 {
		s.logger.Info("recomputed ticket deadlines", zap.String("sector_id", sectorID), zap.Int("changed", changed))
	}
	return changed, nil
}

// ApplyDeadline sets t.DueAt from its current level, sector and override.
func (s *SLAService) ApplyDeadline(ctx context.Context, t *domain.Ticket) (*domain.SLAPolicy, error) {
	policy, err := s.PolicyFor(ctx, t.SectorID)
	if err != nil {
		return nil, err
	}
	t.DueAt = s.calc.Deadline(t, policy).At
	return policy, nil
}

// Evaluate computes the SLA state of one ticket now.
func (s *SLAService) Evaluate(ctx context.Context, t *domain.Ticket) (sla.Evaluation, error) {
	policy, err := s.PolicyFor(ctx, t.SectorID)
	if err != nil {
		return sla.Evaluation{}, err
	}
	return s.calc.Evaluate(t, policy, s.now()), nil
}

// EvaluateMany evaluates tickets at a single instant, loading each sector's
// policy once.
func (s *SLAService) EvaluateMany(ctx context.Context, tickets []domain.Ticket) ([]sla.Evaluation, error) {
	now := s.now()
	policies := make(map[string]*domain.SLAPolicy)
	out := make([]sla.Evaluation, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		policy, ok := policies[t.SectorID]
		if !ok {
			var err error
			policy, err = s.PolicyFor(ctx, t.SectorID)
			if err != nil {
				return nil, err
			}
			policies[t.SectorID] = policy
		}
		out[i] = s.calc.Evaluate(t, policy, now)
	}
	return out, nil
}

// Stats summarizes SLA state for a sector, or for every sector when sectorID
// is nil. Non-admin staff are limited to their own sector.
func (s *SLAService) Stats(ctx context.Context, actor *domain.StaffMember, sectorID *string, since *time.Time) (sla.Summary, error) {
	if err := requireStaff(actor); err != nil {
		return sla.Summary{}, err
	}
	if actor.Role != domain.StaffRoleAdmin {
		if actor.SectorID == nil {
			return sla.Summary{}, apperrors.NewForbidden("staff member has no sector")
		}
		if sectorID != nil && *sectorID != *actor.SectorID {
			return sla.Summary{}, apperrors.NewForbidden("sector outside your scope")
		}
		sectorID = actor.SectorID
	}
	tickets, err := s.tickets.ListForStats(ctx, sectorID, since)
	if err != nil {
		return sla.Summary{}, apperrors.MapError(err)
	}
	evals, err := s.EvaluateMany(ctx, tickets)
	if err != nil {
		return sla.Summary{}, err
	}
	return sla.Summarize(evals), nil
}
