package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
)

var (
	_ clientrepo.Repository   = (*ClientRepository)(nil)
	_ incidentrepo.Repository = (*IncidentRepository)(nil)
	_ teamrepo.Repository     = (*TeamRepository)(nil)
	_ userrepo.Repository     = (*UserRepository)(nil)
	_ inviterepo.Repository   = (*InviteRepository)(nil)
)

// ClientRepository is a mock for clientrepo.Repository.
type ClientRepository struct {
	mock.Mock
}

func (m *ClientRepository) Create(ctx context.Context, teamID domain.TeamID, c domain.Client) (domain.Client, error) {
	args := m.Called(ctx, teamID, c)
	return args.Get(0).(domain.Client), args.Error(1)
}

func (m *ClientRepository) GetByID(ctx context.Context, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	args := m.Called(ctx, teamID, id)
	return args.Get(0).(domain.Client), args.Error(1)
}

func (m *ClientRepository) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Client, error) {
	args := m.Called(ctx, teamID)
	if list, ok := args.Get(0).([]domain.Client); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientRepository) Update(ctx context.Context, teamID domain.TeamID, id domain.ClientID, p clientrepo.Patch) (domain.Client, error) {
	args := m.Called(ctx, teamID, id, p)
	return args.Get(0).(domain.Client), args.Error(1)
}

func (m *ClientRepository) Delete(ctx context.Context, teamID domain.TeamID, id domain.ClientID) error {
	args := m.Called(ctx, teamID, id)
	return args.Error(0)
}

// IncidentRepository is a mock for incidentrepo.Repository.
type IncidentRepository struct {
	mock.Mock
}

func (m *IncidentRepository) Create(ctx context.Context, teamID domain.TeamID, inc domain.Incident) (domain.Incident, error) {
	args := m.Called(ctx, teamID, inc)
	return args.Get(0).(domain.Incident), args.Error(1)
}

func (m *IncidentRepository) GetByID(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error) {
	args := m.Called(ctx, teamID, id)
	return args.Get(0).(domain.Incident), args.Error(1)
}

func (m *IncidentRepository) ListByClient(ctx context.Context, teamID domain.TeamID, clientID domain.ClientID) ([]domain.Incident, error) {
	args := m.Called(ctx, teamID, clientID)
	if list, ok := args.Get(0).([]domain.Incident); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IncidentRepository) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Incident, error) {
	args := m.Called(ctx, teamID)
	if list, ok := args.Get(0).([]domain.Incident); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IncidentRepository) Update(ctx context.Context, teamID domain.TeamID, id domain.IncidentID, p incidentrepo.Patch) (domain.Incident, error) {
	args := m.Called(ctx, teamID, id, p)
	return args.Get(0).(domain.Incident), args.Error(1)
}

func (m *IncidentRepository) Delete(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) error {
	args := m.Called(ctx, teamID, id)
	return args.Error(0)
}

// TeamRepository is a mock for teamrepo.Repository.
type TeamRepository struct {
	mock.Mock
}

func (m *TeamRepository) Create(ctx context.Context, t domain.Team, owner domain.User) (domain.Team, domain.User, error) {
	args := m.Called(ctx, t, owner)
	return args.Get(0).(domain.Team), args.Get(1).(domain.User), args.Error(2)
}

func (m *TeamRepository) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Team), args.Error(1)
}

func (m *TeamRepository) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]domain.Team); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for userrepo.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, teamID domain.TeamID, u domain.User) (domain.User, error) {
	args := m.Called(ctx, teamID, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *UserRepository) Get(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.User, error) {
	args := m.Called(ctx, userID, teamID)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *UserRepository) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.User, error) {
	args := m.Called(ctx, teamID)
	if list, ok := args.Get(0).([]domain.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, userID domain.UserID, teamID domain.TeamID, p userrepo.Patch) (domain.User, error) {
	args := m.Called(ctx, userID, teamID, p)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *UserRepository) Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error {
	args := m.Called(ctx, userID, teamID)
	return args.Error(0)
}

// InviteRepository is a mock for inviterepo.Repository.
type InviteRepository struct {
	mock.Mock
}

func (m *InviteRepository) CreateCode(ctx context.Context, teamID domain.TeamID, createdBy domain.UserID, role domain.Role) (domain.Invite, error) {
	args := m.Called(ctx, teamID, createdBy, role)
	return args.Get(0).(domain.Invite), args.Error(1)
}

func (m *InviteRepository) ValidateCode(ctx context.Context, code domain.InviteCode) (domain.Invite, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Invite), args.Error(1)
}

func (m *InviteRepository) JoinWithCode(ctx context.Context, code domain.InviteCode, u domain.User) (domain.User, error) {
	args := m.Called(ctx, code, u)
	return args.Get(0).(domain.User), args.Error(1)
}
