package main

import (
	"context"

	"github.com/spf13/cobra"

	"dhankavach/internal/app"
)

func approveCmd() *cobra.Command {
	var (
		deny bool
		by   string
	)

	cmd := &cobra.Command{
		Use:   "approve <approval-id>",
		Short: "Approve or deny a pending family approval request",
		Long: `Record a family member's decision on a held payment. Approval requests
live in Redis when it is enabled; with the in-memory store they only exist
inside a running server, so use the HTTP API instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				req, err := a.Orchestrator.ResolveApproval(ctx, args[0], !deny, by)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), req)
			})
		},
	}

	cmd.Flags().BoolVar(&deny, "deny", false, "deny instead of approve")
	cmd.Flags().StringVar(&by, "by", "", "who made the decision")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}
