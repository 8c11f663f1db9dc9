package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/clients"
	"github.com/fieldops/fieldops-api/internal/app/incidents"
	"github.com/fieldops/fieldops-api/internal/app/members"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

const dateLayout = "2006-01-02 15:04"

type listFlags struct {
	team string
	sort string
	desc bool
}

func (f *listFlags) register(cmd *cobra.Command, sortHelp string) {
	cmd.Flags().StringVar(&f.team, "team", "", "team ID (required)")
	cmd.Flags().StringVar(&f.sort, "sort", "", sortHelp)
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending (with --sort)")
	_ = cmd.MarkFlagRequired("team")
}

func newClientsCmd(g *globalOpts) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List client rows with their latest incident",
		Long: `List client rows. Without --sort rows are ordered by most recent incident;
clients without incidents come last.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := openBackend(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer h.Close()

			svc := clients.NewService(h.Clients, h.Incidents, nil)
			var rows []aggregate.ClientRow
			if f.sort == "" {
				rows, err = svc.ListRows(cmd.Context(), domain.TeamID(f.team))
			} else {
				field := aggregate.ClientField(f.sort)
				if field != aggregate.ClientFieldName && field != aggregate.ClientFieldLastIncident {
					return fmt.Errorf("--sort must be name or lastIncident, got %q", f.sort)
				}
				rows, err = svc.ListRowsSorted(cmd.Context(), domain.TeamID(f.team), sortstate.New(field, !f.desc))
			}
			if err != nil {
				return err
			}
			if g.output == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tINCIDENTS\tLAST INCIDENT")
			for _, r := range rows {
				last := "-"
				if r.HasIncidents() {
					last = r.LastIncidentDate.Format(dateLayout)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Name, r.IncidentCount, last)
			}
			return tw.Flush()
		},
	}
	f.register(cmd, "name or lastIncident")
	return cmd
}

func newIncidentsCmd(g *globalOpts) *cobra.Command {
	var (
		f      listFlags
		client string
	)
	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List incident rows for a team or one client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := openBackend(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer h.Close()

			team := domain.TeamID(f.team)
			var rows []aggregate.IncidentRow
			if client != "" {
				rows, err = clients.NewService(h.Clients, h.Incidents, nil).Incidents(cmd.Context(), team, domain.ClientID(client))
			} else {
				rows, err = incidents.NewService(h.Incidents, nil).ListRows(cmd.Context(), team)
			}
			if err != nil {
				return err
			}
			if f.sort != "" {
				field := aggregate.IncidentField(f.sort)
				switch field {
				case aggregate.IncidentFieldDate, aggregate.IncidentFieldStatus, aggregate.IncidentFieldClient:
				default:
					return fmt.Errorf("--sort must be date, status or client, got %q", f.sort)
				}
				rows = aggregate.SortIncidentRows(rows, sortstate.New(field, !f.desc))
			}
			if g.output == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tSTATUS\tCREATED\tDESCRIPTION")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.ClientID, r.StatusLabel, r.CreatedAt.In(time.UTC).Format(dateLayout), r.Description)
			}
			return tw.Flush()
		},
	}
	f.register(cmd, "date, status or client")
	cmd.Flags().StringVar(&client, "client", "", "only incidents of this client")
	return cmd
}

func newMembersCmd(g *globalOpts) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List team members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := openBackend(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer h.Close()

			svc := members.NewService(h.Users, h.Teams, h.Invites, nil)
			var rows []aggregate.MemberRow
			if f.sort == "" {
				rows, err = svc.ListRows(cmd.Context(), domain.TeamID(f.team))
			} else {
				field := aggregate.MemberField(f.sort)
				if field != aggregate.MemberFieldName && field != aggregate.MemberFieldRole {
					return fmt.Errorf("--sort must be name or role, got %q", f.sort)
				}
				rows, err = svc.ListRowsSorted(cmd.Context(), domain.TeamID(f.team), sortstate.New(field, !f.desc))
			}
			if err != nil {
				return err
			}
			if g.output == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.DisplayName, r.Email, r.RoleLabel)
			}
			return tw.Flush()
		},
	}
	f.register(cmd, "name or role")
	return cmd
}
