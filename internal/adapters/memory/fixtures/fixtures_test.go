package fixtures_test

import (
	"context"
	"testing"

	"github.com/fieldops/fieldops-api/internal/adapters/memory"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
)

func TestSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := memory.New(memdb.New())
	if err := fixtures.Seed(ctx, f.DB); err != nil {
		t.Fatalf("Seed() err=%v", err)
	}

	clients, err := f.Clients.ListByTeam(ctx, fixtures.TeamID)
	if err != nil {
		t.Fatalf("ListByTeam() err=%v", err)
	}
	if len(clients) != 3 || clients[0].ID != fixtures.HarborClientID {
		t.Fatalf("ListByTeam()=%+v, want 3 clients starting with Harbor Marina", clients)
	}
	incs, err := f.Incidents.ListByClient(ctx, fixtures.TeamID, fixtures.HarborClientID)
	if err != nil || len(incs) != 3 {
		t.Fatalf("ListByClient()=(%d, %v), want 3", len(incs), err)
	}
	if _, err := f.Invites.ValidateCode(ctx, fixtures.InviteCode); err != nil {
		t.Fatalf("ValidateCode(fixture) err=%v", err)
	}
	acct, err := f.Auth.SignIn(ctx, fixtures.OwnerEmail, fixtures.Password)
	if err != nil || acct.UserID != fixtures.OwnerID {
		t.Fatalf("SignIn()=(%+v, %v), want owner", acct, err)
	}

	// Seeding twice yields the same data.
	if err := fixtures.Seed(ctx, f.DB); err != nil {
		t.Fatalf("Seed() again err=%v", err)
	}
	again, _ := f.Clients.ListByTeam(ctx, fixtures.TeamID)
	if len(again) != len(clients) {
		t.Fatalf("second Seed() changed client count to %d", len(again))
	}
}
