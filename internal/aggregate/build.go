package aggregate

import (
	"slices"
	"time"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// ClientRows joins clients with the incidents that reference them and orders the rows
// most recently active first. Clients with equal LastIncidentDate keep their input order.
//
// Every supplied incident takes part in the join, including ones without an ID of their own.
func ClientRows(clients []domain.Client, incidents []domain.Incident) []ClientRow {
	type activity struct {
		last  time.Time
		count int
	}
	byClient := make(map[domain.ClientID]activity, len(clients))
	for _, inc := range incidents {
		a := byClient[inc.ClientID]
		if a.count == 0 || inc.CreatedAt.After(a.last) {
			a.last = inc.CreatedAt
		}
		a.count++
		byClient[inc.ClientID] = a
	}

	out := make([]ClientRow, 0, len(clients))
	for _, c := range clients {
		if !c.ID.Valid() {
			continue
		}
		row := ClientRow{
			ID:               c.ID,
			Name:             c.Name,
			Notes:            c.Notes,
			LastIncidentDate: DistantPast,
		}
		if a, ok := byClient[c.ID]; ok {
			row.LastIncidentDate = a.last
			row.IncidentCount = a.count
		}
		out = append(out, row)
	}

	slices.SortStableFunc(out, func(a, b ClientRow) int {
		return b.LastIncidentDate.Compare(a.LastIncidentDate)
	})
	return out
}

// IncidentRows keeps the caller's order; sorting is left to SortIncidentRows.
func IncidentRows(incidents []domain.Incident) []IncidentRow {
	out := make([]IncidentRow, 0, len(incidents))
	for _, inc := range incidents {
		if !inc.ID.Valid() {
			continue
		}
		out = append(out, IncidentRow{
			ID:          inc.ID,
			ClientID:    inc.ClientID,
			Description: inc.Description,
			Status:      inc.Status,
			StatusLabel: domain.Label(string(inc.Status)),
			CreatedAt:   inc.CreatedAt,
		})
	}
	return out
}

// MemberRows keeps the caller's order; sorting is left to SortMemberRows.
func MemberRows(users []domain.User) []MemberRow {
	out := make([]MemberRow, 0, len(users))
	for _, u := range users {
		if !u.ID.Valid() {
			continue
		}
		out = append(out, MemberRow{
			ID:          u.ID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			Role:        u.Role,
			RoleLabel:   domain.Label(string(u.Role)),
		})
	}
	return out
}

type RowKind string

const (
	KindClients   RowKind = "clients"
	KindIncidents RowKind = "incidents"
	KindMembers   RowKind = "members"
)

// Input carries the raw records for Build. Only the slices relevant to the kind are read.
type Input struct {
	Clients   []domain.Client
	Incidents []domain.Incident
	Users     []domain.User
}

// Rows holds the output of Build; exactly one slice is populated for a known kind.
type Rows struct {
	Kind      RowKind
	Clients   []ClientRow
	Incidents []IncidentRow
	Members   []MemberRow
}

// Build dispatches on kind. An unknown kind yields empty Rows.
func Build(kind RowKind, in Input) Rows {
	out := Rows{Kind: kind}
	switch kind {
	case KindClients:
		out.Clients = ClientRows(in.Clients, in.Incidents)
	case KindIncidents:
		out.Incidents = IncidentRows(in.Incidents)
	case KindMembers:
		out.Members = MemberRows(in.Users)
	}
	return out
}
