package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/mocks"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

const team = domain.TeamID("team-1")

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestService_ListRows_RecencyOrder(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	is := &mocks.IncidentRepository{}
	cs.On("ListByTeam", mock.Anything, team).Return([]domain.Client{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Bravo"},
		{ID: "c", Name: "Charlie"},
	}, nil)
	is.On("ListByTeam", mock.Anything, team).Return([]domain.Incident{
		{ID: "i1", ClientID: "a", CreatedAt: t0},
		{ID: "i2", ClientID: "b", CreatedAt: t0.Add(48 * time.Hour)},
		{ID: "i3", ClientID: "a", CreatedAt: t0.Add(24 * time.Hour)},
	}, nil)

	rows, err := NewService(cs, is, nil).ListRows(context.Background(), team)
	require.NoError(t, err)

	want := []aggregate.ClientRow{
		{ID: "b", Name: "Bravo", LastIncidentDate: t0.Add(48 * time.Hour), IncidentCount: 1},
		{ID: "a", Name: "Alpha", LastIncidentDate: t0.Add(24 * time.Hour), IncidentCount: 2},
		{ID: "c", Name: "Charlie", LastIncidentDate: aggregate.DistantPast},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("ListRows() mismatch (-want +got):\n%s", diff)
	}
	cs.AssertExpectations(t)
	is.AssertExpectations(t)
}

func TestService_ListRowsSorted_ByName(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	is := &mocks.IncidentRepository{}
	cs.On("ListByTeam", mock.Anything, team).Return([]domain.Client{
		{ID: "b", Name: "bravo"},
		{ID: "a", Name: "Alpha"},
	}, nil)
	is.On("ListByTeam", mock.Anything, team).Return([]domain.Incident{}, nil)

	st := sortstate.New(aggregate.ClientFieldName, false)
	rows, err := NewService(cs, is, nil).ListRowsSorted(context.Background(), team, st)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, domain.ClientID("b"), rows[0].ID)
}

func TestService_ListRows_PropagatesTransient(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	is := &mocks.IncidentRepository{}
	cs.On("ListByTeam", mock.Anything, team).Return([]domain.Client{}, nil)
	is.On("ListByTeam", mock.Anything, team).Return(nil, repoerr.Transient("list incidents", errors.New("timeout")))

	_, err := NewService(cs, is, nil).ListRows(context.Background(), team)
	if !repoerr.Retryable(err) {
		t.Fatalf("ListRows() err=%v, want transient", err)
	}
}

func TestService_Incidents_ForeignClient(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	is := &mocks.IncidentRepository{}
	cs.On("GetByID", mock.Anything, team, domain.ClientID("x")).Return(domain.Client{}, clientrepo.ErrForbidden)
	is.On("ListByClient", mock.Anything, team, domain.ClientID("x")).Return([]domain.Incident{}, nil).Maybe()

	_, err := NewService(cs, is, nil).Incidents(context.Background(), team, "x")
	if repoerr.KindOf(err) != repoerr.KindForbidden {
		t.Fatalf("Incidents() err=%v, want forbidden", err)
	}
}

func TestService_Incidents_Rows(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	is := &mocks.IncidentRepository{}
	cs.On("GetByID", mock.Anything, team, domain.ClientID("a")).Return(domain.Client{ID: "a"}, nil)
	is.On("ListByClient", mock.Anything, team, domain.ClientID("a")).Return([]domain.Incident{
		{ID: "i1", ClientID: "a", Status: domain.IncidentStatusInProgress, CreatedAt: t0},
		{ID: "", ClientID: "a"},
	}, nil)

	rows, err := NewService(cs, is, nil).Incidents(context.Background(), team, "a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "In progress", rows[0].StatusLabel)
}

func TestService_Create_BlankName(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	_, err := NewService(cs, &mocks.IncidentRepository{}, nil).Create(context.Background(), team, CreateInput{Name: "  \t "})
	ae := (*apperr.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("Create() err=%v, want 422", err)
	}
	cs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Create_NormalizesName(t *testing.T) {
	t.Parallel()

	cs := &mocks.ClientRepository{}
	cs.On("Create", mock.Anything, team, domain.Client{Name: "Harbor Freight"}).
		Return(domain.Client{ID: "new", TeamID: team, Name: "Harbor Freight"}, nil)

	c, err := NewService(cs, &mocks.IncidentRepository{}, nil).Create(context.Background(), team, CreateInput{Name: "  Harbor   Freight "})
	require.NoError(t, err)
	require.Equal(t, domain.ClientID("new"), c.ID)
	cs.AssertExpectations(t)
}

func TestService_Update_InvalidPatch(t *testing.T) {
	t.Parallel()

	p := clientrepo.Patch{Name: nullable.NewNullNullable[string]()}
	cs := &mocks.ClientRepository{}
	cs.On("Update", mock.Anything, team, domain.ClientID("a"), p).Return(domain.Client{}, clientrepo.ErrInvalid)

	_, err := NewService(cs, &mocks.IncidentRepository{}, nil).Update(context.Background(), team, "a", p)
	ae := (*apperr.Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("Update() err=%v, want VALIDATION_ERROR", err)
	}
}
