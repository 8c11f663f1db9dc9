package aggregate

import (
	"strings"

	"github.com/fieldops/fieldops-api/internal/sortstate"
)

// Interactive (column header) ordering. This is a separate path from the fixed
// recency order produced by ClientRows.

type ClientField string

const (
	ClientFieldName         ClientField = "name"
	ClientFieldLastIncident ClientField = "lastIncident"
)

type IncidentField string

const (
	IncidentFieldDate   IncidentField = "date"
	IncidentFieldStatus IncidentField = "status"
	IncidentFieldClient IncidentField = "client"
)

type MemberField string

const (
	MemberFieldName MemberField = "name"
	MemberFieldRole MemberField = "role"
)

func DefaultClientSort() sortstate.State[ClientField] {
	return sortstate.New(ClientFieldName, true)
}

func DefaultIncidentSort() sortstate.State[IncidentField] {
	return sortstate.New(IncidentFieldDate, false)
}

func DefaultMemberSort() sortstate.State[MemberField] {
	return sortstate.New(MemberFieldName, true)
}

var clientComparators = map[ClientField]func(a, b ClientRow) int{
	ClientFieldName: func(a, b ClientRow) int { return foldCompare(a.Name, b.Name) },
	ClientFieldLastIncident: func(a, b ClientRow) int {
		return a.LastIncidentDate.Compare(b.LastIncidentDate)
	},
}

var incidentComparators = map[IncidentField]func(a, b IncidentRow) int{
	IncidentFieldDate:   func(a, b IncidentRow) int { return a.CreatedAt.Compare(b.CreatedAt) },
	IncidentFieldStatus: func(a, b IncidentRow) int { return strings.Compare(a.StatusLabel, b.StatusLabel) },
	IncidentFieldClient: func(a, b IncidentRow) int { return strings.Compare(string(a.ClientID), string(b.ClientID)) },
}

var memberComparators = map[MemberField]func(a, b MemberRow) int{
	MemberFieldName: func(a, b MemberRow) int { return foldCompare(a.DisplayName, b.DisplayName) },
	MemberFieldRole: func(a, b MemberRow) int { return strings.Compare(a.RoleLabel, b.RoleLabel) },
}

func SortClientRows(rows []ClientRow, s sortstate.State[ClientField]) []ClientRow {
	return sortstate.Sort(rows, s, clientComparators)
}

func SortIncidentRows(rows []IncidentRow, s sortstate.State[IncidentField]) []IncidentRow {
	return sortstate.Sort(rows, s, incidentComparators)
}

func SortMemberRows(rows []MemberRow, s sortstate.State[MemberField]) []MemberRow {
	return sortstate.Sort(rows, s, memberComparators)
}

func foldCompare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
