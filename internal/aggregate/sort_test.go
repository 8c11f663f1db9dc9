package aggregate

import (
	"testing"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

func TestSortClientRows_IndependentOfRecencyOrder(t *testing.T) {
	t.Parallel()

	rows := ClientRows(
		[]domain.Client{{ID: "A", Name: "acme"}, {ID: "B", Name: "Beta"}, {ID: "C", Name: "Cobalt"}},
		[]domain.Incident{{ID: "i1", ClientID: "C", CreatedAt: t3}, {ID: "i2", ClientID: "A", CreatedAt: t1}},
	)
	if rows[0].ID != "C" {
		t.Fatalf("default order starts with %q, want C", rows[0].ID)
	}

	s := DefaultClientSort()
	byName := SortClientRows(rows, s)
	if byName[0].ID != "A" || byName[1].ID != "B" || byName[2].ID != "C" {
		t.Fatalf("name asc=%v", ids(byName))
	}

	s.ToggleOrSelect(ClientFieldName)
	byNameDesc := SortClientRows(rows, s)
	if byNameDesc[0].ID != "C" || byNameDesc[2].ID != "A" {
		t.Fatalf("name desc=%v", ids(byNameDesc))
	}

	s.ToggleOrSelect(ClientFieldLastIncident)
	byLast := SortClientRows(rows, s)
	if byLast[0].ID != "B" || byLast[2].ID != "C" {
		t.Fatalf("lastIncident asc=%v", ids(byLast))
	}
	if rows[0].ID != "C" {
		t.Fatalf("SortClientRows mutated input")
	}
}

func TestSortIncidentRows(t *testing.T) {
	t.Parallel()

	rows := IncidentRows([]domain.Incident{
		{ID: "i1", ClientID: "B", Status: domain.IncidentStatusResolved, CreatedAt: t1},
		{ID: "i2", ClientID: "A", Status: domain.IncidentStatusOpen, CreatedAt: t3},
		{ID: "i3", ClientID: "A", Status: domain.IncidentStatusInProgress, CreatedAt: t2},
	})

	got := SortIncidentRows(rows, DefaultIncidentSort())
	if got[0].ID != "i2" || got[1].ID != "i3" || got[2].ID != "i1" {
		t.Fatalf("date desc=%v", got)
	}

	got = SortIncidentRows(rows, sortstate.New(IncidentFieldClient, true))
	if got[0].ID != "i2" || got[1].ID != "i3" || got[2].ID != "i1" {
		t.Fatalf("client asc (stable)=%v", got)
	}

	got = SortIncidentRows(rows, sortstate.New(IncidentFieldStatus, true))
	if got[0].Status != domain.IncidentStatusInProgress || got[2].Status != domain.IncidentStatusResolved {
		t.Fatalf("status asc=%v", got)
	}
}

func TestSortMemberRows(t *testing.T) {
	t.Parallel()

	rows := MemberRows([]domain.User{
		{ID: "u1", DisplayName: "bob", Role: domain.RoleMember},
		{ID: "u2", DisplayName: "Alice", Role: domain.RoleOwner},
		{ID: "u3", DisplayName: "Carl", Role: domain.RoleAdmin},
	})
	got := SortMemberRows(rows, DefaultMemberSort())
	if got[0].ID != "u2" || got[1].ID != "u1" || got[2].ID != "u3" {
		t.Fatalf("name asc=%v", got)
	}
	got = SortMemberRows(rows, sortstate.New(MemberFieldRole, false))
	if got[0].Role != domain.RoleOwner || got[2].Role != domain.RoleAdmin {
		t.Fatalf("role desc=%v", got)
	}
}

func ids(rows []ClientRow) []domain.ClientID {
	out := make([]domain.ClientID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
