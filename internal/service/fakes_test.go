package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository"
)

var errNoRowsForTest = pgx.ErrNoRows

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func strPtr(s string) *string { return &s }

type fakeTickets struct {
	mu   sync.Mutex
	seq  int
	rows map[string]domain.Ticket
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{rows: map[string]domain.Ticket{}}
}

func (f *fakeTickets) put(t domain.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[t.ID] = t
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t.ID = fmt.Sprintf("t-%03d", f.seq)
	t.UpdatedAt = t.CreatedAt
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTickets) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.ExternalKey == key {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	return f.ListWithFilter(ctx, repository.TicketFilter{RequesterID: &userID, Limit: limit, Offset: offset})
}

func (f *fakeTickets) sorted() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(f.rows))
	for _, t := range f.rows {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.sorted() {
		if filter.RequesterID != nil && t.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.SectorID != nil && t.SectorID != *filter.SectorID {
			continue
		}
		if filter.Overdue && (t.Status.IsTerminal() || !t.DueAt.Before(filter.Now)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTickets) ListActive(_ context.Context, sectorID *string, afterID string, limit int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.sorted() {
		if t.Status.IsTerminal() || t.ID <= afterID {
			continue
		}
		if sectorID != nil && t.SectorID != *sectorID {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTickets) ListForStats(_ context.Context, sectorID *string, _ *time.Time) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.sorted() {
		if sectorID == nil || t.SectorID == *sectorID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTickets) UpdateDueAt(_ context.Context, id string, dueAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.DueAt = dueAt
	f.rows[id] = t
	return nil
}

func (f *fakeTickets) MarkBreached(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.SLABreachedAt != nil || t.Status.IsTerminal() {
		return false, nil
	}
	t.SLABreachedAt = &at
	f.rows[id] = t
	return true, nil
}

type fakePolicies struct {
	rows map[string]domain.SLAPolicy
}

func newFakePolicies(policies ...domain.SLAPolicy) *fakePolicies {
	f := &fakePolicies{rows: map[string]domain.SLAPolicy{}}
	for _, p := range policies {
		f.rows[p.SectorID] = p
	}
	return f
}

func (f *fakePolicies) GetBySector(_ context.Context, sectorID string) (*domain.SLAPolicy, error) {
	p, ok := f.rows[sectorID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakePolicies) Upsert(_ context.Context, p *domain.SLAPolicy) error {
	f.rows[p.SectorID] = *p
	return nil
}

func (f *fakePolicies) Delete(_ context.Context, sectorID string) error {
	if _, ok := f.rows[sectorID]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, sectorID)
	return nil
}

func (f *fakePolicies) List(context.Context) ([]domain.SLAPolicy, error) {
	out := make([]domain.SLAPolicy, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

type fakeSectors struct {
	rows map[string]domain.Sector
}

func newFakeSectors(sectors ...domain.Sector) *fakeSectors {
	f := &fakeSectors{rows: map[string]domain.Sector{}}
	for _, s := range sectors {
		f.rows[s.ID] = s
	}
	return f
}

func (f *fakeSectors) Create(_ context.Context, s *domain.Sector) error {
	s.ID = fmt.Sprintf("sector-%d", len(f.rows)+1)
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSectors) Update(_ context.Context, s *domain.Sector) error {
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSectors) GetByID(_ context.Context, id string) (*domain.Sector, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSectors) List(_ context.Context, includeInactive bool) ([]domain.Sector, error) {
	var out []domain.Sector
	for _, s := range f.rows {
		if s.IsActive || includeInactive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeTeams struct {
	rows map[string]domain.Team
}

func newFakeTeams(teams ...domain.Team) *fakeTeams {
	f := &fakeTeams{rows: map[string]domain.Team{}}
	for _, t := range teams {
		f.rows[t.ID] = t
	}
	return f
}

func (f *fakeTeams) Create(_ context.Context, t *domain.Team) error {
	t.ID = fmt.Sprintf("team-%d", len(f.rows)+1)
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTeams) Update(_ context.Context, t *domain.Team) error {
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTeams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTeams) List(_ context.Context, sectorID *string, includeInactive bool) ([]domain.Team, error) {
	var out []domain.Team
	for _, t := range f.rows {
		if sectorID != nil && t.SectorID != *sectorID {
			continue
		}
		if t.IsActive || includeInactive {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeStaff struct {
	rows map[string]domain.StaffMember
}

func newFakeStaff(members ...domain.StaffMember) *fakeStaff {
	f := &fakeStaff{rows: map[string]domain.StaffMember{}}
	for _, m := range members {
		f.rows[m.ID] = m
	}
	return f
}

func (f *fakeStaff) Create(_ context.Context, m *domain.StaffMember) error {
	m.ID = fmt.Sprintf("staff-%d", len(f.rows)+1)
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeStaff) Update(_ context.Context, m *domain.StaffMember) error {
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeStaff) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (f *fakeStaff) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, m := range f.rows {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaff) GetByHandles(_ context.Context, handles []string) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, h := range handles {
		for _, m := range f.rows {
			if m.Active && m.Handle() == h {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeStaff) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, m := range f.rows {
		if filter.Role != nil && m.Role != *filter.Role {
			continue
		}
		if filter.TeamID != nil && (m.TeamID == nil || *m.TeamID != *filter.TeamID) {
			continue
		}
		if filter.SectorID != nil && (m.SectorID == nil || *m.SectorID != *filter.SectorID) {
			continue
		}
		if filter.Active != nil && m.Active != *filter.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeHistory struct {
	entries []domain.TicketHistory
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	h.ID = fmt.Sprintf("h-%d", len(f.entries)+1)
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHistory) ofType(change domain.TicketChangeType) []domain.TicketHistory {
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.ChangeType == change {
			out = append(out, h)
		}
	}
	return out
}

type fakeMessages struct {
	rows []domain.TicketMessage
}

func (f *fakeMessages) Create(_ context.Context, m *domain.TicketMessage) error {
	m.ID = fmt.Sprintf("m-%d", len(f.rows)+1)
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMessages) GetByID(_ context.Context, id string) (*domain.TicketMessage, error) {
	for _, m := range f.rows {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessages) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	for _, m := range f.rows {
		if m.TicketID != ticketID {
			continue
		}
		if !includeInternal && m.MessageType == domain.MessageTypeInternalNote {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeAttachments struct {
	rows []domain.Attachment
}

func (f *fakeAttachments) Create(_ context.Context, a *domain.Attachment) error {
	a.ID = fmt.Sprintf("a-%d", len(f.rows)+1)
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range f.rows {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

// recordingDispatcher delivers synchronously and remembers every event.
type recordingDispatcher struct {
	inner  events.Dispatcher
	events []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{inner: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return d.inner.Publish(ctx, event)
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
