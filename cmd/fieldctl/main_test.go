package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/aggregate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClients_TextTable(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--mock", "clients", "--team", string(fixtures.TeamID))
	if err != nil {
		t.Fatalf("clients err=%v out=%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines=%d, want header + 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Harbor Marina") || !strings.HasSuffix(strings.TrimSpace(lines[3]), "-") {
		t.Fatalf("unexpected order:\n%s", out)
	}
}

func TestClients_JSONSorted(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--mock", "-o", "json", "clients", "--team", string(fixtures.TeamID), "--sort", "name")
	if err != nil {
		t.Fatalf("clients err=%v", err)
	}
	var rows []aggregate.ClientRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode err=%v out=%s", err, out)
	}
	if len(rows) != 3 || rows[0].Name != "Harbor Marina" || rows[1].Name != "Maple Street Clinic" {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestClients_BadSort(t *testing.T) {
	t.Parallel()

	if _, err := run(t, "--mock", "clients", "--team", string(fixtures.TeamID), "--sort", "size"); err == nil {
		t.Fatalf("clients --sort size err=nil, want error")
	}
}

func TestIncidents_ForClient(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--mock", "incidents", "--team", string(fixtures.TeamID), "--client", string(fixtures.HarborClientID), "--sort", "date", "--desc")
	if err != nil {
		t.Fatalf("incidents err=%v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.Contains(lines[1], "Pump alarm") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestMembers_RequiresTeam(t *testing.T) {
	t.Parallel()

	if _, err := run(t, "--mock", "members"); err == nil {
		t.Fatalf("members without --team err=nil, want error")
	}
	out, err := run(t, "--mock", "members", "--team", string(fixtures.TeamID), "--sort", "role")
	if err != nil {
		t.Fatalf("members err=%v", err)
	}
	if !strings.Contains(out, "Marco Ruiz") {
		t.Fatalf("output missing admin:\n%s", out)
	}
}

func TestInvite_CheckAndJoin(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--mock", "invite", "check", strings.ToLower(string(fixtures.InviteCode)))
	if err != nil || !strings.Contains(out, string(fixtures.TeamID)) {
		t.Fatalf("invite check err=%v out=%s", err, out)
	}
	out, err = run(t, "--mock", "invite", "join", string(fixtures.InviteCode), "--as", "u-new", "--name", "Sam Reyes")
	if err != nil || !strings.Contains(out, "Sam Reyes joined") {
		t.Fatalf("invite join err=%v out=%s", err, out)
	}
}

func TestInvite_CreateByMemberRejected(t *testing.T) {
	t.Parallel()

	_, err := run(t, "--mock", "invite", "create", "--team", string(fixtures.TeamID), "--as", string(fixtures.MemberID))
	if err == nil || !strings.Contains(err.Error(), "only owners and admins") {
		t.Fatalf("invite create err=%v, want role rejection", err)
	}
}

func TestRoot_BadOutput(t *testing.T) {
	t.Parallel()

	if _, err := run(t, "--mock", "-o", "yaml", "members", "--team", "x"); err == nil {
		t.Fatalf("-o yaml err=nil, want error")
	}
}
