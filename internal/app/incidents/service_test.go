package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/mocks"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

const team = domain.TeamID("team-1")

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestService_ListRowsSorted_ByStatusDescending(t *testing.T) {
	t.Parallel()

	repo := &mocks.IncidentRepository{}
	repo.On("ListByTeam", mock.Anything, team).Return([]domain.Incident{
		{ID: "i1", Status: domain.IncidentStatusOpen, CreatedAt: t0},
		{ID: "i2", Status: domain.IncidentStatusResolved, CreatedAt: t0.Add(time.Hour)},
		{ID: "i3", Status: domain.IncidentStatusInProgress, CreatedAt: t0.Add(2 * time.Hour)},
	}, nil)

	st := sortstate.New(aggregate.IncidentFieldDate, true)
	st.ToggleOrSelect(aggregate.IncidentFieldDate)

	rows, err := NewService(repo, nil).ListRowsSorted(context.Background(), team, st)
	require.NoError(t, err)
	got := []domain.IncidentID{rows[0].ID, rows[1].ID, rows[2].ID}
	assert.Equal(t, []domain.IncidentID{"i3", "i2", "i1"}, got)
}

func TestService_Create_DefaultsToOpen(t *testing.T) {
	t.Parallel()

	repo := &mocks.IncidentRepository{}
	want := domain.Incident{ClientID: "c1", Description: "Leaking valve", Status: domain.IncidentStatusOpen, CreatedBy: "u1"}
	repo.On("Create", mock.Anything, team, want).Return(domain.Incident{ID: "i9", ClientID: "c1", Status: domain.IncidentStatusOpen}, nil)

	inc, err := NewService(repo, nil).Create(context.Background(), team, "u1", CreateInput{ClientID: "c1", Description: " Leaking valve "})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentID("i9"), inc.ID)
	repo.AssertExpectations(t)
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]CreateInput{
		"clientId": {Description: "x"},
		"status":   {ClientID: "c1", Status: "closed"},
	}
	for field, in := range cases {
		_, err := NewService(&mocks.IncidentRepository{}, nil).Create(context.Background(), team, "u1", in)
		ae := (*apperr.Error)(nil)
		if !errors.As(err, &ae) || ae.Status != 422 {
			t.Fatalf("Create(%s) err=%v, want 422", field, err)
		}
		if _, ok := ae.Details[field]; !ok {
			t.Fatalf("Create(%s) details=%v, want %s", field, ae.Details, field)
		}
	}
}

func TestService_Create_UnknownClientPassesThrough(t *testing.T) {
	t.Parallel()

	repo := &mocks.IncidentRepository{}
	repo.On("Create", mock.Anything, team, mock.Anything).Return(domain.Incident{}, clientrepo.ErrNotFound)

	_, err := NewService(repo, nil).Create(context.Background(), team, "u1", CreateInput{ClientID: "gone"})
	if repoerr.KindOf(err) != repoerr.KindNotFound {
		t.Fatalf("Create() err=%v, want not-found", err)
	}
}

func TestService_Update_InvalidStatus(t *testing.T) {
	t.Parallel()

	p := incidentrepo.Patch{Status: nullable.NewNullableWithValue(domain.IncidentStatus("bogus"))}
	repo := &mocks.IncidentRepository{}
	repo.On("Update", mock.Anything, team, domain.IncidentID("i1"), p).Return(domain.Incident{}, incidentrepo.ErrInvalid)

	_, err := NewService(repo, nil).Update(context.Background(), team, "i1", p)
	ae := (*apperr.Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("Update() err=%v, want VALIDATION_ERROR", err)
	}
}
