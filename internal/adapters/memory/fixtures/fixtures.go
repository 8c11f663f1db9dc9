// Package fixtures seeds a memdb.DB with a small, fixed data set for mock handles,
// demos and tests. IDs and timestamps never change between runs.
package fixtures

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/domain"
)

const (
	TeamID      domain.TeamID = "6f1c2a9e-0000-4000-8000-000000000001"
	OtherTeamID domain.TeamID = "6f1c2a9e-0000-4000-8000-000000000002"

	OwnerID    domain.UserID = "0b7d4e10-0000-4000-8000-000000000001"
	AdminID    domain.UserID = "0b7d4e10-0000-4000-8000-000000000002"
	MemberID   domain.UserID = "0b7d4e10-0000-4000-8000-000000000003"
	OutsiderID domain.UserID = "0b7d4e10-0000-4000-8000-000000000004"

	HarborClientID    domain.ClientID = "a3e5c7d9-0000-4000-8000-000000000001"
	MapleClientID     domain.ClientID = "a3e5c7d9-0000-4000-8000-000000000002"
	QuarryClientID    domain.ClientID = "a3e5c7d9-0000-4000-8000-000000000003"
	OtherTeamClientID domain.ClientID = "a3e5c7d9-0000-4000-8000-000000000004"

	InviteCode domain.InviteCode = "FIELDOPS"

	OwnerEmail = "dana@northside.example"
	// Password signs in every seeded account.
	Password = "fieldops-demo"
)

// Epoch is the reference instant all seeded timestamps derive from.
var Epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func at(days, hours int) time.Time {
	return Epoch.Add(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour)
}

// Teams returns the seeded teams.
func Teams() []domain.Team {
	return []domain.Team{
		{ID: TeamID, Name: "Northside Field Services", OwnerID: OwnerID, CreatedAt: at(0, 0)},
		{ID: OtherTeamID, Name: "Southbank Repairs", OwnerID: OutsiderID, CreatedAt: at(0, 1)},
	}
}

func Users() []domain.User {
	return []domain.User{
		{ID: OwnerID, TeamID: TeamID, Email: OwnerEmail, DisplayName: "Dana Whitfield", Role: domain.RoleOwner, CreatedAt: at(0, 0), UpdatedAt: at(0, 0)},
		{ID: AdminID, TeamID: TeamID, Email: "marco@northside.example", DisplayName: "Marco Ruiz", Role: domain.RoleAdmin, CreatedAt: at(1, 0), UpdatedAt: at(1, 0)},
		{ID: MemberID, TeamID: TeamID, Email: "priya@northside.example", DisplayName: "Priya Natarajan", Role: domain.RoleMember, CreatedAt: at(2, 0), UpdatedAt: at(2, 0)},
		{ID: OutsiderID, TeamID: OtherTeamID, Email: "lee@southbank.example", DisplayName: "Lee Okafor", Role: domain.RoleOwner, CreatedAt: at(0, 1), UpdatedAt: at(0, 1)},
	}
}

func Clients() []domain.Client {
	phone := "+1 555 0100"
	addr := "14 Harbor Rd"
	return []domain.Client{
		{ID: HarborClientID, TeamID: TeamID, Name: "Harbor Marina", Notes: "Gate code 4412", Phone: &phone, Address: &addr, CreatedAt: at(3, 0), UpdatedAt: at(3, 0)},
		{ID: MapleClientID, TeamID: TeamID, Name: "Maple Street Clinic", CreatedAt: at(3, 2), UpdatedAt: at(3, 2)},
		{ID: QuarryClientID, TeamID: TeamID, Name: "Quarry Hill School", Notes: "Call ahead", CreatedAt: at(4, 0), UpdatedAt: at(4, 0)},
		{ID: OtherTeamClientID, TeamID: OtherTeamID, Name: "Riverside Depot", CreatedAt: at(4, 1), UpdatedAt: at(4, 1)},
	}
}

func Incidents() []domain.Incident {
	inc := func(n string, client domain.ClientID, team domain.TeamID, desc string, st domain.IncidentStatus, by domain.UserID, created time.Time) domain.Incident {
		return domain.Incident{
			ID:          domain.IncidentID("c8f0b2d4-0000-4000-8000-0000000000" + n),
			TeamID:      team,
			ClientID:    client,
			Description: desc,
			Status:      st,
			CreatedBy:   by,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}
	return []domain.Incident{
		inc("01", HarborClientID, TeamID, "Dock light flickering", domain.IncidentStatusResolved, AdminID, at(5, 0)),
		inc("02", HarborClientID, TeamID, "Pump alarm on berth 3", domain.IncidentStatusInProgress, MemberID, at(9, 4)),
		inc("03", QuarryClientID, TeamID, "Boiler pressure low", domain.IncidentStatusOpen, MemberID, at(7, 2)),
		inc("04", HarborClientID, TeamID, "Fuel dock sensor offline", domain.IncidentStatusOpen, OwnerID, at(6, 1)),
		inc("05", OtherTeamClientID, OtherTeamID, "Forklift battery", domain.IncidentStatusOpen, OutsiderID, at(8, 0)),
	}
}

// Seed writes the fixture set into db, replacing records with the same keys.
func Seed(ctx context.Context, db *memdb.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	return db.Update(ctx, "fixtures.seed", func(t *memdb.Tables) error {
		for _, tm := range Teams() {
			t.Teams[tm.ID] = tm
		}
		for _, u := range Users() {
			t.Users[memdb.MemberKey{UserID: u.ID, TeamID: u.TeamID}] = u
			t.Accounts[u.Email] = memdb.Account{
				Account:      domain.Account{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName},
				PasswordHash: hash,
			}
		}
		for _, c := range Clients() {
			t.Clients[c.ID] = c
		}
		for _, i := range Incidents() {
			t.Incidents[i.ID] = i
		}
		t.Invites[InviteCode] = domain.Invite{
			Code:      InviteCode,
			TeamID:    TeamID,
			Role:      domain.RoleMember,
			CreatedBy: OwnerID,
			CreatedAt: at(10, 0),
			ExpiresAt: at(10, 0).Add(100 * 365 * 24 * time.Hour),
		}
		return nil
	})
}
