package main

import (
	"context"

	"github.com/spf13/cobra"

	"dhankavach/internal/app"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect household risk profiles",
	}

	var profileID, entityID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a profile summary, or one flagged entity with --entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if entityID != "" {
					entity, err := a.Orchestrator.ProfileEntity(ctx, profileID, entityID)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), entity)
				}
				summary, err := a.Orchestrator.ProfileSummary(ctx, profileID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	show.Flags().StringVar(&profileID, "profile", "", "household profile id")
	show.Flags().StringVar(&entityID, "entity", "", "phone, UPI handle or URL to look up")
	_ = show.MarkFlagRequired("profile")

	cmd.AddCommand(show)
	return cmd
}
