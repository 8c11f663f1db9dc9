// Package aggregate turns raw backend records into display rows.
//
// Every builder drops records without a valid identifier. That is data hygiene, not a
// failure: nothing is returned or logged for dropped records.
package aggregate

import (
	"time"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// DistantPast is the LastIncidentDate of a client nobody has reported an incident for.
// It sorts after every real timestamp when ordering most-recent first.
var DistantPast = time.Time{}

type ClientRow struct {
	ID    domain.ClientID
	Name  string
	Notes string

	LastIncidentDate time.Time
	IncidentCount    int
}

// HasIncidents reports whether any incident joined the row. An incident with a zero
// CreatedAt still counts even though LastIncidentDate then equals DistantPast.
func (r ClientRow) HasIncidents() bool {
	return r.IncidentCount > 0
}

type IncidentRow struct {
	ID          domain.IncidentID
	ClientID    domain.ClientID
	Description string
	Status      domain.IncidentStatus
	StatusLabel string
	CreatedAt   time.Time
}

type MemberRow struct {
	ID          domain.UserID
	DisplayName string
	Email       string
	Role        domain.Role
	RoleLabel   string
}
