package members

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/adapters/memory"
	memclock "github.com/fieldops/fieldops-api/internal/adapters/memory/clock"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/mocks"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

const team = domain.TeamID("team-1")

func newMocked() (*Service, *mocks.UserRepository, *mocks.TeamRepository, *mocks.InviteRepository) {
	us := &mocks.UserRepository{}
	ts := &mocks.TeamRepository{}
	is := &mocks.InviteRepository{}
	return NewService(us, ts, is, nil), us, ts, is
}

func wantAppErr(t *testing.T, op string, err error, status int, code string) {
	t.Helper()
	ae := (*apperr.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("%s err=%v (type=%T), want %s %d", op, err, err, code, status)
	}
}

func TestService_RequireMember_NotMember(t *testing.T) {
	t.Parallel()

	svc, us, _, _ := newMocked()
	us.On("Get", mock.Anything, domain.UserID("u1"), team).Return(domain.User{}, userrepo.ErrNotFound)

	_, err := svc.RequireMember(context.Background(), team, "u1")
	wantAppErr(t, "RequireMember()", err, 403, "NOT_A_MEMBER")
}

func TestService_RequireMember_UnknownTeam(t *testing.T) {
	t.Parallel()

	svc, us, _, _ := newMocked()
	us.On("Get", mock.Anything, domain.UserID("u1"), team).Return(domain.User{}, teamrepo.ErrNotFound)

	_, err := svc.RequireMember(context.Background(), team, "u1")
	if !errors.Is(err, teamrepo.ErrNotFound) {
		t.Fatalf("RequireMember() err=%v, want team not found", err)
	}
}

func TestService_ListRowsSorted_ByRole(t *testing.T) {
	t.Parallel()

	svc, us, _, _ := newMocked()
	us.On("ListByTeam", mock.Anything, team).Return([]domain.User{
		{ID: "u1", DisplayName: "Avery", Role: domain.RoleMember},
		{ID: "u2", DisplayName: "Blake", Role: domain.RoleAdmin},
		{ID: "", DisplayName: "Ghost"},
	}, nil)

	rows, err := svc.ListRowsSorted(context.Background(), team, sortstate.New(aggregate.MemberFieldRole, true))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Admin", rows[0].RoleLabel)
}

func TestService_CreateInvite_Roles(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newMocked()
	_, err := svc.CreateInvite(context.Background(), team, "u1", domain.RoleOwner)
	wantAppErr(t, "CreateInvite(owner)", err, 422, "VALIDATION_ERROR")

	svc, us, _, _ := newMocked()
	us.On("Get", mock.Anything, domain.UserID("u1"), team).Return(domain.User{ID: "u1", Role: domain.RoleMember}, nil)
	_, err = svc.CreateInvite(context.Background(), team, "u1", "")
	wantAppErr(t, "CreateInvite(by member)", err, 403, "INSUFFICIENT_ROLE")
}

func TestService_CreateInvite_DefaultsToMember(t *testing.T) {
	t.Parallel()

	svc, us, _, is := newMocked()
	us.On("Get", mock.Anything, domain.UserID("u1"), team).Return(domain.User{ID: "u1", Role: domain.RoleAdmin}, nil)
	is.On("CreateCode", mock.Anything, team, domain.UserID("u1"), domain.RoleMember).
		Return(domain.Invite{Code: "ABCDEFGH", TeamID: team, Role: domain.RoleMember}, nil)

	inv, err := svc.CreateInvite(context.Background(), team, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.InviteCode("ABCDEFGH"), inv.Code)
	is.AssertExpectations(t)
}

func TestService_ValidateInvite_NormalizesAndMapsUnusable(t *testing.T) {
	t.Parallel()

	svc, _, _, is := newMocked()
	is.On("ValidateCode", mock.Anything, domain.InviteCode("ABCDEFGH")).Return(domain.Invite{}, inviterepo.ErrUnusable)

	_, err := svc.ValidateInvite(context.Background(), " abcdefgh ")
	wantAppErr(t, "ValidateInvite()", err, 410, "INVITE_UNUSABLE")
}

func TestService_Join_AgainstMemoryBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clk := memclock.NewManualClock(fixtures.Epoch.Add(24 * time.Hour))
	db := memdb.New(memdb.WithClock(clk))
	require.NoError(t, fixtures.Seed(ctx, db))
	f := memory.New(db)
	svc := NewService(f.Users, f.Teams, f.Invites, nil)

	newbie := domain.Account{UserID: "u-new", Email: "new@northside.example", DisplayName: "New Hire"}
	u, err := svc.Join(ctx, fixtures.InviteCode, newbie)
	require.NoError(t, err)
	assert.Equal(t, fixtures.TeamID, u.TeamID)

	_, err = svc.Join(ctx, fixtures.InviteCode, domain.Account{UserID: "u-late", Email: "late@northside.example", DisplayName: "Late"})
	wantAppErr(t, "Join(second)", err, 410, "INVITE_UNUSABLE")

	teams, err := svc.Teams(ctx, "u-new")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, fixtures.TeamID, teams[0].ID)
}

func TestService_CreateTeam_OwnerMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := memory.New(memdb.New())
	svc := NewService(f.Users, f.Teams, f.Invites, nil)

	acct := domain.Account{UserID: "u1", Email: "u1@example.com", DisplayName: "Uno"}
	tm, err := svc.CreateTeam(ctx, acct, "  Night   Shift ")
	require.NoError(t, err)
	assert.Equal(t, "Night Shift", tm.Name)

	me, err := svc.RequireMember(ctx, tm.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, me.Role)

	_, err = svc.CreateTeam(ctx, acct, " ")
	wantAppErr(t, "CreateTeam(blank)", err, 422, "VALIDATION_ERROR")
}

func TestService_CreateTeam_NamelessOwnerRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := memory.New(memdb.New())
	svc := NewService(f.Users, f.Teams, f.Invites, nil)

	_, err := svc.CreateTeam(ctx, domain.Account{UserID: "u2", DisplayName: "  "}, "Night Shift")
	wantAppErr(t, "CreateTeam(nameless owner)", err, 422, "VALIDATION_ERROR")

	teams, err := svc.Teams(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, teams)
}
