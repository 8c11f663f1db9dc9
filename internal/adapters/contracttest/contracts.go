// Package contracttest holds behaviour suites shared by every adapter family. Each Run
// function takes a factory so the same assertions run against memory and postgres.
package contracttest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	"github.com/fieldops/fieldops-api/internal/ports/out/storage"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

// Repos is one backend's set of team-scoped repositories. They must share storage.
type Repos struct {
	Clients   clientrepo.Repository
	Incidents incidentrepo.Repository
	Teams     teamrepo.Repository
	Users     userrepo.Repository
	Invites   inviterepo.Repository
}

type ReposFactory func(t *testing.T) (Repos, CleanupFunc)
type AuthFactory func(t *testing.T) (authrepo.Auth, CleanupFunc)
type StoreFactory func(t *testing.T) (storage.Store, CleanupFunc)
type ReplayFactory func(t *testing.T) (idempotency.Store, CleanupFunc)

func open(t *testing.T, newRepos ReposFactory) Repos {
	t.Helper()
	r, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return r
}

// newTeam creates a team with a fresh owner and returns both.
func newTeam(t *testing.T, r Repos, name string) (domain.Team, domain.User) {
	t.Helper()
	owner := domain.User{
		ID:          domain.UserID(uuid.NewString()),
		Email:       "owner-" + uuid.NewString()[:8] + "@example.com",
		DisplayName: name + " Owner",
	}
	team, member, err := r.Teams.Create(context.Background(), domain.Team{Name: name}, owner)
	if err != nil {
		t.Fatalf("Teams.Create(%q): %v", name, err)
	}
	return team, member
}

func unknownTeam() domain.TeamID { return domain.TeamID(uuid.NewString()) }

func wantErr(t *testing.T, op string, err error, targets ...error) {
	t.Helper()
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Fatalf("%s err=%v, want %v", op, err, target)
		}
	}
}

func RunClientRepo(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()
	r := open(t, newRepos)

	teamA, _ := newTeam(t, r, "Alpha Crew")
	teamB, _ := newTeam(t, r, "Bravo Crew")

	if _, err := r.Clients.Create(ctx, unknownTeam(), domain.Client{Name: "Nobody"}); err == nil {
		t.Fatalf("Create(unknown team) expected error")
	} else {
		wantErr(t, "Create(unknown team)", err, teamrepo.ErrNotFound, repoerr.ErrNotFound)
	}
	_, err := r.Clients.Create(ctx, teamA.ID, domain.Client{Name: "   "})
	wantErr(t, "Create(blank name)", err, clientrepo.ErrInvalid)

	phone := "555 0101"
	zed, err := r.Clients.Create(ctx, teamA.ID, domain.Client{Name: "  zed   hardware ", Notes: "back door", Phone: &phone})
	if err != nil {
		t.Fatalf("Create zed: %v", err)
	}
	if !zed.ID.Valid() || zed.TeamID != teamA.ID || zed.Name != "zed hardware" {
		t.Fatalf("Create() = %+v, want assigned id, team %s and normalised name", zed, teamA.ID)
	}
	if zed.CreatedAt.IsZero() || zed.UpdatedAt.IsZero() {
		t.Fatalf("Create() timestamps not set: %+v", zed)
	}
	acme, err := r.Clients.Create(ctx, teamA.ID, domain.Client{Name: "Acme Plumbing"})
	if err != nil {
		t.Fatalf("Create acme: %v", err)
	}
	other, err := r.Clients.Create(ctx, teamB.ID, domain.Client{Name: "Bravo Client"})
	if err != nil {
		t.Fatalf("Create other: %v", err)
	}

	got, err := r.Clients.GetByID(ctx, teamA.ID, zed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Phone == nil || *got.Phone != phone || got.Notes != "back door" {
		t.Fatalf("GetByID() = %+v, want stored phone and notes", got)
	}

	// Not found, forbidden and unknown team on every single-resource operation.
	missing := domain.ClientID(uuid.NewString())
	_, err = r.Clients.GetByID(ctx, teamA.ID, missing)
	wantErr(t, "GetByID(missing)", err, clientrepo.ErrNotFound, repoerr.ErrNotFound)
	_, err = r.Clients.GetByID(ctx, teamA.ID, other.ID)
	wantErr(t, "GetByID(other team)", err, clientrepo.ErrForbidden, repoerr.ErrForbidden)
	_, err = r.Clients.GetByID(ctx, unknownTeam(), zed.ID)
	wantErr(t, "GetByID(unknown team)", err, teamrepo.ErrNotFound)
	_, err = r.Clients.Update(ctx, teamA.ID, missing, clientrepo.Patch{Notes: nullable.NewNullableWithValue("x")})
	wantErr(t, "Update(missing)", err, repoerr.ErrNotFound)
	_, err = r.Clients.Update(ctx, teamA.ID, other.ID, clientrepo.Patch{Notes: nullable.NewNullableWithValue("x")})
	wantErr(t, "Update(other team)", err, repoerr.ErrForbidden)
	wantErr(t, "Delete(missing)", r.Clients.Delete(ctx, teamA.ID, missing), repoerr.ErrNotFound)
	wantErr(t, "Delete(other team)", r.Clients.Delete(ctx, teamA.ID, other.ID), repoerr.ErrForbidden)
	_, err = r.Clients.ListByTeam(ctx, unknownTeam())
	wantErr(t, "ListByTeam(unknown team)", err, teamrepo.ErrNotFound)

	// Deterministic ordering: case-insensitive by name.
	list, err := r.Clients.ListByTeam(ctx, teamA.ID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(list) != 2 || list[0].ID != acme.ID || list[1].ID != zed.ID {
		t.Fatalf("ListByTeam() = %v, want [acme zed]", clientNames(list))
	}

	// Sparse update: only specified fields change; null clears optional fields.
	updated, err := r.Clients.Update(ctx, teamA.ID, zed.ID, clientrepo.Patch{
		Notes: nullable.NewNullableWithValue("front door"),
		Phone: nullable.NewNullNullable[string](),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "zed hardware" || updated.Notes != "front door" || updated.Phone != nil {
		t.Fatalf("Update() = %+v, want name kept, notes set, phone cleared", updated)
	}
	_, err = r.Clients.Update(ctx, teamA.ID, zed.ID, clientrepo.Patch{Name: nullable.NewNullNullable[string]()})
	wantErr(t, "Update(null name)", err, clientrepo.ErrInvalid)

	// Soft delete hides the record from gets and lists.
	if err := r.Clients.Delete(ctx, teamA.ID, zed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = r.Clients.GetByID(ctx, teamA.ID, zed.ID)
	wantErr(t, "GetByID(deleted)", err, clientrepo.ErrNotFound)
	wantErr(t, "Delete(deleted)", r.Clients.Delete(ctx, teamA.ID, zed.ID), clientrepo.ErrNotFound)
	list, err = r.Clients.ListByTeam(ctx, teamA.ID)
	if err != nil || len(list) != 1 || list[0].ID != acme.ID {
		t.Fatalf("ListByTeam() after delete = (%v, %v), want [acme]", clientNames(list), err)
	}
}

func clientNames(cs []domain.Client) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return strings.Join(names, ",")
}

func RunIncidentRepo(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()
	r := open(t, newRepos)

	teamA, ownerA := newTeam(t, r, "Alpha Crew")
	teamB, _ := newTeam(t, r, "Bravo Crew")
	c1, err := r.Clients.Create(ctx, teamA.ID, domain.Client{Name: "First"})
	if err != nil {
		t.Fatalf("Create client: %v", err)
	}
	c2, err := r.Clients.Create(ctx, teamA.ID, domain.Client{Name: "Second"})
	if err != nil {
		t.Fatalf("Create client: %v", err)
	}
	cb, err := r.Clients.Create(ctx, teamB.ID, domain.Client{Name: "Bravo"})
	if err != nil {
		t.Fatalf("Create client: %v", err)
	}

	base := time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)
	mk := func(client domain.ClientID, desc string, created time.Time) domain.Incident {
		t.Helper()
		inc, err := r.Incidents.Create(ctx, teamA.ID, domain.Incident{
			ClientID:    client,
			Description: desc,
			CreatedBy:   ownerA.ID,
			CreatedAt:   created,
		})
		if err != nil {
			t.Fatalf("Create incident %q: %v", desc, err)
		}
		return inc
	}
	late := mk(c1.ID, "late", base.Add(3*time.Hour))
	early := mk(c1.ID, "early", base)
	mid := mk(c2.ID, "mid", base.Add(time.Hour))

	if early.Status != domain.IncidentStatusOpen {
		t.Fatalf("Create() status=%q, want open", early.Status)
	}
	if !early.CreatedAt.Equal(base) {
		t.Fatalf("Create() createdAt=%v, want %v", early.CreatedAt, base)
	}

	_, err = r.Incidents.Create(ctx, teamA.ID, domain.Incident{ClientID: cb.ID, Description: "x"})
	wantErr(t, "Create(client in other team)", err, repoerr.ErrForbidden)
	_, err = r.Incidents.Create(ctx, teamA.ID, domain.Incident{ClientID: domain.ClientID(uuid.NewString())})
	wantErr(t, "Create(missing client)", err, repoerr.ErrNotFound)
	_, err = r.Incidents.Create(ctx, teamA.ID, domain.Incident{ClientID: c1.ID, Status: "bogus"})
	wantErr(t, "Create(bad status)", err, incidentrepo.ErrInvalid)
	_, err = r.Incidents.Create(ctx, unknownTeam(), domain.Incident{ClientID: c1.ID})
	wantErr(t, "Create(unknown team)", err, teamrepo.ErrNotFound)

	foreign, err := r.Incidents.Create(ctx, teamB.ID, domain.Incident{ClientID: cb.ID, Description: "b"})
	if err != nil {
		t.Fatalf("Create foreign: %v", err)
	}

	missing := domain.IncidentID(uuid.NewString())
	_, err = r.Incidents.GetByID(ctx, teamA.ID, missing)
	wantErr(t, "GetByID(missing)", err, incidentrepo.ErrNotFound, repoerr.ErrNotFound)
	_, err = r.Incidents.GetByID(ctx, teamA.ID, foreign.ID)
	wantErr(t, "GetByID(other team)", err, incidentrepo.ErrForbidden, repoerr.ErrForbidden)
	_, err = r.Incidents.GetByID(ctx, unknownTeam(), early.ID)
	wantErr(t, "GetByID(unknown team)", err, teamrepo.ErrNotFound)
	_, err = r.Incidents.Update(ctx, teamA.ID, foreign.ID, incidentrepo.Patch{Description: nullable.NewNullableWithValue("x")})
	wantErr(t, "Update(other team)", err, repoerr.ErrForbidden)
	_, err = r.Incidents.Update(ctx, teamA.ID, missing, incidentrepo.Patch{})
	wantErr(t, "Update(missing)", err, repoerr.ErrNotFound)
	wantErr(t, "Delete(other team)", r.Incidents.Delete(ctx, teamA.ID, foreign.ID), repoerr.ErrForbidden)
	wantErr(t, "Delete(missing)", r.Incidents.Delete(ctx, teamA.ID, missing), repoerr.ErrNotFound)
	_, err = r.Incidents.ListByClient(ctx, teamA.ID, cb.ID)
	wantErr(t, "ListByClient(other team client)", err, repoerr.ErrForbidden)

	all, err := r.Incidents.ListByTeam(ctx, teamA.ID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if got := incidentDescs(all); got != "early,mid,late" {
		t.Fatalf("ListByTeam() = %s, want early,mid,late", got)
	}
	byClient, err := r.Incidents.ListByClient(ctx, teamA.ID, c1.ID)
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	var filtered []domain.Incident
	for _, inc := range all {
		if inc.ClientID == c1.ID {
			filtered = append(filtered, inc)
		}
	}
	if incidentDescs(byClient) != incidentDescs(filtered) {
		t.Fatalf("ListByClient() = %s, want ListByTeam filtered = %s", incidentDescs(byClient), incidentDescs(filtered))
	}

	updated, err := r.Incidents.Update(ctx, teamA.ID, late.ID, incidentrepo.Patch{
		Status: nullable.NewNullableWithValue(domain.IncidentStatusResolved),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.IncidentStatusResolved || updated.Description != "late" || updated.ClientID != c1.ID {
		t.Fatalf("Update() = %+v, want only status changed", updated)
	}
	_, err = r.Incidents.Update(ctx, teamA.ID, late.ID, incidentrepo.Patch{Status: nullable.NewNullNullable[domain.IncidentStatus]()})
	wantErr(t, "Update(null status)", err, incidentrepo.ErrInvalid)

	if err := r.Incidents.Delete(ctx, teamA.ID, mid.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = r.Incidents.GetByID(ctx, teamA.ID, mid.ID)
	wantErr(t, "GetByID(deleted)", err, incidentrepo.ErrNotFound)
	all, err = r.Incidents.ListByTeam(ctx, teamA.ID)
	if err != nil || incidentDescs(all) != "early,late" {
		t.Fatalf("ListByTeam() after delete = (%s, %v), want early,late", incidentDescs(all), err)
	}
}

func incidentDescs(incs []domain.Incident) string {
	out := make([]string, 0, len(incs))
	for _, inc := range incs {
		out = append(out, inc.Description)
	}
	return strings.Join(out, ",")
}

func RunTeamRepo(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()
	r := open(t, newRepos)

	_, _, err := r.Teams.Create(ctx, domain.Team{Name: "  "}, domain.User{ID: domain.UserID(uuid.NewString()), DisplayName: "X"})
	wantErr(t, "Create(blank name)", err, teamrepo.ErrInvalid)
	_, _, err = r.Teams.Create(ctx, domain.Team{Name: "No Owner"}, domain.User{})
	wantErr(t, "Create(no owner)", err, teamrepo.ErrInvalid)
	nameless := domain.UserID(uuid.NewString())
	_, _, err = r.Teams.Create(ctx, domain.Team{Name: "Nameless Owner"}, domain.User{ID: nameless, DisplayName: "   "})
	wantErr(t, "Create(blank owner name)", err, teamrepo.ErrInvalid)
	if teams, err := r.Teams.ListForUser(ctx, nameless); err != nil || len(teams) != 0 {
		t.Fatalf("ListForUser(rejected owner) = (%+v, %v), want empty", teams, err)
	}

	ownerID := domain.UserID(uuid.NewString())
	zulu, owner, err := r.Teams.Create(ctx, domain.Team{Name: "zulu  team"}, domain.User{
		ID:          ownerID,
		Email:       "Zed@Example.com",
		DisplayName: "Zed",
		Role:        domain.RoleMember,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !zulu.ID.Valid() || zulu.Name != "zulu team" || zulu.OwnerID != ownerID {
		t.Fatalf("Create() team = %+v", zulu)
	}
	if owner.Role != domain.RoleOwner || owner.TeamID != zulu.ID || owner.Email != "zed@example.com" {
		t.Fatalf("Create() owner = %+v, want owner role in new team", owner)
	}
	if _, err := r.Users.Get(ctx, ownerID, zulu.ID); err != nil {
		t.Fatalf("Users.Get(owner): %v", err)
	}

	got, err := r.Teams.GetByID(ctx, zulu.ID)
	if err != nil || got.ID != zulu.ID || got.Name != "zulu team" {
		t.Fatalf("GetByID() = (%+v, %v)", got, err)
	}
	_, err = r.Teams.GetByID(ctx, unknownTeam())
	wantErr(t, "GetByID(missing)", err, teamrepo.ErrNotFound, repoerr.ErrNotFound)

	alpha, _, err := r.Teams.Create(ctx, domain.Team{Name: "Alpha"}, domain.User{ID: domain.UserID(uuid.NewString()), DisplayName: "Al"})
	if err != nil {
		t.Fatalf("Create alpha: %v", err)
	}
	if _, err := r.Users.Create(ctx, alpha.ID, domain.User{ID: ownerID, DisplayName: "Zed"}); err != nil {
		t.Fatalf("Users.Create: %v", err)
	}
	teams, err := r.Teams.ListForUser(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(teams) != 2 || teams[0].ID != alpha.ID || teams[1].ID != zulu.ID {
		t.Fatalf("ListForUser() = %+v, want [alpha zulu]", teams)
	}
	teams, err = r.Teams.ListForUser(ctx, domain.UserID(uuid.NewString()))
	if err != nil || len(teams) != 0 {
		t.Fatalf("ListForUser(stranger) = (%+v, %v), want empty", teams, err)
	}
}

func RunUserRepo(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()
	r := open(t, newRepos)

	team, owner := newTeam(t, r, "Alpha Crew")
	uid := domain.UserID(uuid.NewString())

	_, err := r.Users.Create(ctx, team.ID, domain.User{DisplayName: "No ID"})
	wantErr(t, "Create(no id)", err, userrepo.ErrInvalid)
	_, err = r.Users.Create(ctx, unknownTeam(), domain.User{ID: uid, DisplayName: "Amy"})
	wantErr(t, "Create(unknown team)", err, teamrepo.ErrNotFound)

	amy, err := r.Users.Create(ctx, team.ID, domain.User{ID: uid, Email: " AMY@example.com", DisplayName: "amy  adams"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if amy.Role != domain.RoleMember || amy.Email != "amy@example.com" || amy.DisplayName != "amy adams" || amy.TeamID != team.ID {
		t.Fatalf("Create() = %+v, want defaults and normalisation", amy)
	}
	_, err = r.Users.Create(ctx, team.ID, domain.User{ID: uid, DisplayName: "Amy again"})
	wantErr(t, "Create(duplicate)", err, userrepo.ErrAlreadyExists)

	_, err = r.Users.Get(ctx, domain.UserID(uuid.NewString()), team.ID)
	wantErr(t, "Get(missing)", err, userrepo.ErrNotFound, repoerr.ErrNotFound)
	_, err = r.Users.Get(ctx, uid, unknownTeam())
	wantErr(t, "Get(unknown team)", err, teamrepo.ErrNotFound)

	list, err := r.Users.ListByTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(list) != 2 || list[0].ID != owner.ID || list[1].ID != uid {
		t.Fatalf("ListByTeam() = %+v, want [owner amy]", list)
	}

	updated, err := r.Users.Update(ctx, uid, team.ID, userrepo.Patch{Role: nullable.NewNullableWithValue(domain.RoleAdmin)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Role != domain.RoleAdmin || updated.DisplayName != "amy adams" {
		t.Fatalf("Update() = %+v, want role admin, name kept", updated)
	}
	_, err = r.Users.Update(ctx, uid, team.ID, userrepo.Patch{DisplayName: nullable.NewNullableWithValue(" ")})
	wantErr(t, "Update(blank name)", err, userrepo.ErrInvalid)
	_, err = r.Users.Update(ctx, domain.UserID(uuid.NewString()), team.ID, userrepo.Patch{})
	wantErr(t, "Update(missing)", err, userrepo.ErrNotFound)

	if err := r.Users.Delete(ctx, uid, team.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = r.Users.Get(ctx, uid, team.ID)
	wantErr(t, "Get(deleted)", err, userrepo.ErrNotFound)
	wantErr(t, "Delete(deleted)", r.Users.Delete(ctx, uid, team.ID), userrepo.ErrNotFound)

	// A removed member can be added back.
	if _, err := r.Users.Create(ctx, team.ID, domain.User{ID: uid, DisplayName: "Amy"}); err != nil {
		t.Fatalf("Create(re-add): %v", err)
	}
}

func RunInviteRepo(t *testing.T, newRepos ReposFactory) {
	t.Helper()
	ctx := context.Background()
	r := open(t, newRepos)

	team, owner := newTeam(t, r, "Alpha Crew")

	_, err := r.Invites.CreateCode(ctx, team.ID, domain.UserID(uuid.NewString()), domain.RoleMember)
	wantErr(t, "CreateCode(non-member)", err, inviterepo.ErrNotMember, repoerr.ErrForbidden)
	_, err = r.Invites.CreateCode(ctx, team.ID, owner.ID, domain.RoleOwner)
	wantErr(t, "CreateCode(owner role)", err, inviterepo.ErrInvalidRole)
	_, err = r.Invites.CreateCode(ctx, unknownTeam(), owner.ID, domain.RoleMember)
	wantErr(t, "CreateCode(unknown team)", err, teamrepo.ErrNotFound)

	inv, err := r.Invites.CreateCode(ctx, team.ID, owner.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateCode: %v", err)
	}
	if len(inv.Code) != inviterepo.CodeLength || inv.TeamID != team.ID || inv.Role != domain.RoleAdmin {
		t.Fatalf("CreateCode() = %+v", inv)
	}
	if d := inv.ExpiresAt.Sub(inv.CreatedAt); d != inviterepo.DefaultTTL {
		t.Fatalf("CreateCode() ttl=%v, want %v", d, inviterepo.DefaultTTL)
	}

	// Validation is read-only and case-insensitive.
	for range 2 {
		got, err := r.Invites.ValidateCode(ctx, domain.InviteCode(" "+strings.ToLower(string(inv.Code))))
		if err != nil || got.Code != inv.Code || got.RedeemedBy != nil {
			t.Fatalf("ValidateCode() = (%+v, %v)", got, err)
		}
	}
	_, err = r.Invites.ValidateCode(ctx, "ZZZZZZZZ")
	wantErr(t, "ValidateCode(unknown)", err, inviterepo.ErrNotFound, repoerr.ErrNotFound)

	// Joining as an existing member fails and leaves the code usable.
	_, err = r.Invites.JoinWithCode(ctx, inv.Code, domain.User{ID: owner.ID, DisplayName: owner.DisplayName})
	wantErr(t, "JoinWithCode(existing member)", err, userrepo.ErrAlreadyExists)
	if _, err := r.Invites.ValidateCode(ctx, inv.Code); err != nil {
		t.Fatalf("ValidateCode() after failed join: %v", err)
	}

	joinerID := domain.UserID(uuid.NewString())
	joined, err := r.Invites.JoinWithCode(ctx, inv.Code, domain.User{ID: joinerID, Email: "j@example.com", DisplayName: "Joiner", Role: domain.RoleMember})
	if err != nil {
		t.Fatalf("JoinWithCode: %v", err)
	}
	if joined.TeamID != team.ID || joined.Role != domain.RoleAdmin {
		t.Fatalf("JoinWithCode() = %+v, want admin in %s", joined, team.ID)
	}
	if _, err := r.Users.Get(ctx, joinerID, team.ID); err != nil {
		t.Fatalf("Users.Get(joiner): %v", err)
	}

	// Single use.
	_, err = r.Invites.ValidateCode(ctx, inv.Code)
	wantErr(t, "ValidateCode(redeemed)", err, inviterepo.ErrUnusable, repoerr.ErrForbidden)
	lateID := domain.UserID(uuid.NewString())
	_, err = r.Invites.JoinWithCode(ctx, inv.Code, domain.User{ID: lateID, DisplayName: "Late"})
	wantErr(t, "JoinWithCode(redeemed)", err, inviterepo.ErrUnusable)
	_, err = r.Users.Get(ctx, lateID, team.ID)
	wantErr(t, "Users.Get(late joiner)", err, userrepo.ErrNotFound)
}

func RunAuth(t *testing.T, newAuth AuthFactory) {
	t.Helper()
	ctx := context.Background()
	auth, cleanup := newAuth(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, ok := auth.CurrentUser(); ok {
		t.Fatalf("CurrentUser() ok=true before sign-in")
	}
	if err := auth.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() while signed out: %v", err)
	}

	email := "Tech-" + uuid.NewString()[:8] + "@Example.com"
	const password = "correct horse"
	_, err := auth.SignUp(ctx, "not-an-email", password, "Tech")
	wantErr(t, "SignUp(bad email)", err, authrepo.ErrInvalid)
	_, err = auth.SignUp(ctx, email, "short", "Tech")
	wantErr(t, "SignUp(short password)", err, authrepo.ErrInvalid)

	acct, err := auth.SignUp(ctx, email, password, " Field  Tech ")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !acct.UserID.Valid() || acct.Email != strings.ToLower(email) || acct.DisplayName != "Field Tech" {
		t.Fatalf("SignUp() = %+v", acct)
	}
	cur, ok := auth.CurrentUser()
	if !ok || cur != acct {
		t.Fatalf("CurrentUser() = (%+v, %v), want %+v", cur, ok, acct)
	}
	_, err = auth.SignUp(ctx, email, password, "Again")
	wantErr(t, "SignUp(taken)", err, authrepo.ErrEmailTaken)

	if err := auth.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, ok := auth.CurrentUser(); ok {
		t.Fatalf("CurrentUser() ok=true after sign-out")
	}

	_, err = auth.SignIn(ctx, email, "wrong password")
	wantErr(t, "SignIn(wrong password)", err, authrepo.ErrInvalidCredentials, repoerr.ErrForbidden)
	_, err = auth.SignIn(ctx, "nobody-"+uuid.NewString()[:8]+"@example.com", password)
	wantErr(t, "SignIn(unknown email)", err, authrepo.ErrInvalidCredentials)
	if _, ok := auth.CurrentUser(); ok {
		t.Fatalf("CurrentUser() ok=true after failed sign-in")
	}

	again, err := auth.SignIn(ctx, strings.ToUpper(email), password)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if again.UserID != acct.UserID {
		t.Fatalf("SignIn() user=%s, want %s", again.UserID, acct.UserID)
	}

	if sa, ok := auth.(authrepo.SessionAuth); ok {
		sess, ok := sa.CurrentSession()
		if !ok || sess.Token == "" {
			t.Fatalf("CurrentSession() = (%+v, %v)", sess, ok)
		}
		verified, err := sa.Verify(ctx, sess.Token)
		if err != nil || verified.UserID != acct.UserID {
			t.Fatalf("Verify() = (%+v, %v)", verified, err)
		}
		if err := sa.SignOut(ctx); err != nil {
			t.Fatalf("SignOut: %v", err)
		}
		_, err = sa.Verify(ctx, sess.Token)
		wantErr(t, "Verify(after sign-out)", err, authrepo.ErrSessionNotFound)
	}
}

func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()
	ctx := context.Background()
	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	_, err := store.Upload(ctx, []byte("x"), "  ")
	wantErr(t, "Upload(blank path)", err, storage.ErrInvalidPath)
	_, err = store.Upload(ctx, []byte("x"), "../escape")
	wantErr(t, "Upload(escaping path)", err, storage.ErrInvalidPath)

	p := "teams/" + uuid.NewString() + "/photo.jpg"
	data := bytes.Repeat([]byte{0xff, 0xd8}, 64)
	loc1, err := store.Upload(ctx, data, p)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	loc2, err := store.Upload(ctx, data, "/"+p)
	if err != nil {
		t.Fatalf("Upload(retry): %v", err)
	}
	if loc1 != loc2 {
		t.Fatalf("Upload() retry location=%q, want %q", loc2, loc1)
	}

	if err := store.Delete(ctx, loc1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, loc1); err != nil {
		t.Fatalf("Delete(missing) err=%v, want nil", err)
	}
	wantErr(t, "Delete(malformed)", store.Delete(ctx, "nonsense"), storage.ErrInvalidPath)
}

func RunReplayStore(t *testing.T, newStore ReplayFactory) {
	t.Helper()
	ctx := context.Background()
	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotency.Fingerprint{
		Key:      idempotency.Key(uuid.NewString()),
		Subject:  domain.UserID(uuid.NewString()),
		Method:   "POST",
		Path:     "/teams/" + uuid.NewString() + "/clients",
		BodyHash: "3f2a",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get(unknown) ok=%v err=%v, want miss", ok, err)
	}

	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := store.Put(ctx, fp.Claim(), idempotency.Record{Body: []byte(fp.BodyHash), CreatedAt: created}); err != nil {
		t.Fatalf("Put(claim): %v", err)
	}
	want := idempotency.Record{StatusCode: 201, ContentType: "application/json", Body: []byte(`{"id":"x"}`), CreatedAt: created}
	if err := store.Put(ctx, fp, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v, want hit", ok, err)
	}
	if got.StatusCode != want.StatusCode || got.ContentType != want.ContentType || !bytes.Equal(got.Body, want.Body) || !got.CreatedAt.Equal(created) {
		t.Fatalf("Get()=%+v, want %+v", got, want)
	}
	claim, ok, err := store.Get(ctx, fp.Claim())
	if err != nil || !ok || string(claim.Body) != fp.BodyHash {
		t.Fatalf("Get(claim)=%+v ok=%v err=%v", claim, ok, err)
	}

	other := fp
	other.Subject = domain.UserID(uuid.NewString())
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other subject) ok=%v err=%v, want miss", ok, err)
	}
}
