package worker

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/sla"
)

const (
	defaultMonitorInterval = time.Minute
	defaultMonitorBatch    = 200
	warningKeyPrefix       = "helpdesk:sla-warning:"
)

// TicketStore is the part of the ticket repository the monitor needs.
type TicketStore interface {
	ListActive(ctx context.Context, sectorID *string, afterID string, limit int) ([]domain.Ticket, error)
	UpdateDueAt(ctx context.Context, id string, dueAt time.Time) error
	MarkBreached(ctx context.Context, id string, at time.Time) (bool, error)
}

// PolicyResolver returns a sector's SLA policy, or nil when it has none.
type PolicyResolver interface {
	PolicyFor(ctx context.Context, sectorID string) (*domain.SLAPolicy, error)
}

// OnceMarker deduplicates one-shot alerts.
type OnceMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// HistoryWriter appends ticket history.
type HistoryWriter interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
}

// SLAMonitorDependencies wires the monitor.
type SLAMonitorDependencies struct {
	Tickets    TicketStore
	Policies   PolicyResolver
	Marker     OnceMarker
	History    HistoryWriter
	Dispatcher events.Dispatcher
	Calculator *sla.Calculator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
	BatchSize  int
}

// SLAMonitor periodically evaluates active tickets, stamps breaches and
// raises warnings.
type SLAMonitor struct {
	tickets    TicketStore
	policies   PolicyResolver
	marker     OnceMarker
	history    HistoryWriter
	dispatcher events.Dispatcher
	calc       *sla.Calculator
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
	batch      int
	now        func() time.Time
}

// MonitorReport summarizes one pass.
type MonitorReport struct {
	Scanned   int
	Breached  int
	Warned    int
	Refreshed int
}

// NewSLAMonitor builds a monitor.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	m := &SLAMonitor{
		tickets:    deps.Tickets,
		policies:   deps.Policies,
		marker:     deps.Marker,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		calc:       deps.Calculator,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		interval:   deps.Interval,
		batch:      deps.BatchSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if m.calc == nil {
		m.calc = sla.NewCalculator(nil)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.interval <= 0 {
		m.interval = defaultMonitorInterval
	}
	if m.batch <= 0 {
		m.batch = defaultMonitorBatch
	}
	return m
}

// Run evaluates immediately and then on every tick until ctx is done.
func (m *SLAMonitor) Run(ctx context.Context) error {
	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		m.tick(ctx)
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (m *SLAMonitor) tick(ctx context.Context) {
	start := time.Now()
	report, err := m.RunOnce(ctx)
	m.metrics.RecordMonitorRun(err, time.Since(start))
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Error("sla monitor pass failed", zap.Error(err))
		}
		return
	}
	m.logger.Debug("sla monitor pass",
		zap.Int("scanned", report.Scanned),
		zap.Int("breached", report.Breached),
		zap.Int("warned", report.Warned),
		zap.Int("refreshed", report.Refreshed))
}

// RunOnce pages through every active ticket once.
func (m *SLAMonitor) RunOnce(ctx context.Context) (MonitorReport, error) {
	var report MonitorReport
	now := m.now()
	policies := make(map[string]*domain.SLAPolicy)
	overdueBySector := make(map[string]int)
	byBand := make(map[string]int)

	after := ""
	for {
		batch, err := m.tickets.ListActive(ctx, nil, after, m.batch)
		if err != nil {
			return report, err
		}
		for i := range batch {
			t := &batch[i]
			policy, ok := policies[t.SectorID]
			if !ok {
				policy, err = m.policies.PolicyFor(ctx, t.SectorID)
				if err != nil {
					return report, err
				}
				policies[t.SectorID] = policy
			}
			ev := m.calc.Evaluate(t, policy, now)
			report.Scanned++
			byBand[string(ev.Band)]++

			if !ev.Deadline.Equal(t.DueAt) {
				if err := m.tickets.UpdateDueAt(ctx, t.ID, ev.Deadline); err != nil {
					return report, err
				}
				report.Refreshed++
			}
			switch {
			case ev.Overdue:
				overdueBySector[t.SectorID]++
				breached, err := m.breach(ctx, t, ev, now)
				if err != nil {
					return report, err
				}
				if breached {
					report.Breached++
				}
			case ev.Band == sla.BandCritical:
				warned, err := m.warn(ctx, t, ev)
				if err != nil {
					// retried on the next tick
					m.logger.Warn("sla warning dedupe failed", zap.String("ticket_id", t.ID), zap.Error(err))
					continue
				}
				if warned {
					report.Warned++
				}
			}
		}
		if len(batch) < m.batch {
			break
		}
		after = batch[len(batch)-1].ID
	}
	m.metrics.SetSLAGauges(overdueBySector, byBand)
	return report, nil
}

// breach stamps the first breach of t. Only the caller that wins the stamp
// records history and publishes, so a breach is reported exactly once.
func (m *SLAMonitor) breach(ctx context.Context, t *domain.Ticket, ev sla.Evaluation, now time.Time) (bool, error) {
	stamped, err := m.tickets.MarkBreached(ctx, t.ID, now)
	if err != nil || !stamped {
		return false, err
	}
	if m.history != nil {
		entry := &domain.TicketHistory{
			TicketID:      t.ID,
			ChangedByType: domain.AuthorTypeSystem,
			ChangeType:    domain.ChangeTypeSLA,
			OldValue:      map[string]any{"sla_breached_at": nil},
			NewValue:      map[string]any{"sla_breached_at": now, "due_at": ev.Deadline},
		}
		if err := m.history.Create(ctx, entry); err != nil {
			m.logger.Warn("record sla breach history failed", zap.String("ticket_id", t.ID), zap.Error(err))
		}
	}
	m.metrics.RecordBreach(t.SectorID, string(t.Level))
	m.publish(ctx, events.EventSLABreached, t, ev)
	m.logger.Info("sla breached",
		zap.String("ticket_id", t.ID),
		zap.String("sector_id", t.SectorID),
		zap.String("level", string(t.Level)),
		zap.Time("due_at", ev.Deadline))
	return true, nil
}

// warn raises one warning per ticket and deadline. Moving the deadline
// produces a new key, so an extended ticket can warn again.
func (m *SLAMonitor) warn(ctx context.Context, t *domain.Ticket, ev sla.Evaluation) (bool, error) {
	if m.marker == nil {
		return false, nil
	}
	key := warningKeyPrefix + t.ID + ":" + strconv.FormatInt(ev.Deadline.Unix(), 10)
	first, err := m.marker.MarkOnce(ctx, key, ev.Remaining+24*time.Hour)
	if err != nil || !first {
		return false, err
	}
	m.metrics.RecordWarning(string(t.Level))
	m.publish(ctx, events.EventSLAWarning, t, ev)
	return true, nil
}

func (m *SLAMonitor) publish(ctx context.Context, eventType events.EventType, t *domain.Ticket, ev sla.Evaluation) {
	if m.dispatcher == nil {
		return
	}
	err := m.dispatcher.Publish(ctx, events.Event{
		Type:     eventType,
		TicketID: t.ID,
		Actor:    events.SystemActor,
		Payload: events.SLAPayload{
			SectorID:   t.SectorID,
			Level:      t.Level,
			AssigneeID: t.AssigneeID,
			Title:      t.Title,
			Deadline:   ev.Deadline,
			Remaining:  ev.Remaining,
		},
	})
	if err != nil {
		m.logger.Warn("publish sla event failed",
			zap.String("event", string(eventType)),
			zap.String("ticket_id", t.ID),
			zap.Error(err))
	}
}
