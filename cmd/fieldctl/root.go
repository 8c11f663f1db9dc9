package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/backend"
	"github.com/fieldops/fieldops-api/internal/platform/config"
	"github.com/fieldops/fieldops-api/internal/platform/logging"
)

type globalOpts struct {
	mock   bool
	output string
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:   "fieldctl",
		Short: "Operate the field-ops backend",
		Long: `fieldctl talks to the backend selected by FIELDOPS_PROFILE and friends.

Pass --mock to work against the seeded in-memory data set instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch g.output {
			case "text", "json":
				return nil
			default:
				return fmt.Errorf("--output must be text or json, got %q", g.output)
			}
		},
	}
	root.PersistentFlags().BoolVar(&g.mock, "mock", false, "use the in-memory fixture backend")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		newClientsCmd(g),
		newIncidentsCmd(g),
		newMembersCmd(g),
		newInviteCmd(g),
		newMigrateCmd(),
	)
	return root
}

func openBackend(ctx context.Context, g *globalOpts) (*backend.Handle, error) {
	if g.mock {
		return backend.New(ctx, backend.Options{UseMock: true})
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, "console", "fieldctl")
	if err != nil {
		log = zap.NewNop()
	}
	return backend.New(ctx, backend.Options{Profile: &cfg, Logger: log})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
