package service

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Message bodies and descriptions are stored as sanitized HTML; history notes
// are plain text.
var (
	bodyPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

func sanitizeBody(body string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(strings.TrimSpace(body)))
}

// sanitizeText drops all markup and returns unescaped text.
func sanitizeText(text string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(text))))
}

// lookupErr maps a repository lookup failure to a domain error.
func lookupErr(err error, resource string, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return apperrors.MapError(err)
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireStaff(actor *domain.StaffMember) error {
	if actor == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	return nil
}

// staffCanAccess reports whether staff may work on ticket: admins see
// everything, others their team's or sector's tickets.
func staffCanAccess(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.StaffRoleAdmin {
		return true
	}
	if staff.TeamID != nil && ticket.TeamID != nil && *staff.TeamID == *ticket.TeamID {
		return true
	}
	return staff.SectorID != nil && *staff.SectorID == ticket.SectorID
}

// staffInScope reports whether staff belongs to the ticket's team or sector.
func staffInScope(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.TeamID != nil && ticket.TeamID != nil && *staff.TeamID == *ticket.TeamID {
		return true
	}
	return staff.SectorID != nil && *staff.SectorID == ticket.SectorID
}

// applyStaffScope narrows a listing to what staff may see.
func applyStaffScope(filter *repository.TicketFilter, staff *domain.StaffMember) {
	if staff == nil || staff.Role == domain.StaffRoleAdmin {
		return
	}
	if staff.SectorID != nil {
		filter.SectorID = staff.SectorID
		return
	}
	if staff.TeamID != nil {
		filter.TeamID = staff.TeamID
		return
	}
	// no sector and no team: nothing is visible
	none := "00000000-0000-0000-0000-000000000000"
	filter.SectorID = &none
}

func ptrBool(v bool) *bool {
	return &v
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func utcNow() time.Time {
	return time.Now().UTC()
}
