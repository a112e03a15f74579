package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dhankavach/internal/app"
	"dhankavach/internal/domain/services/orchestrator"
)

func analyzeCmd() *cobra.Command {
	var (
		profileID string
		text      string
		files     []string
		agent     string
		narrate   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a message or document and print the verdict as JSON",
		Long: `Analyze a message or document for a household profile.

Examples:
  # A forwarded SMS
  dhankavach analyze --profile household-1 --text "Your KYC expires today, call 9876543210"

  # A scanned loan offer
  dhankavach analyze --profile household-1 --file offer.pdf --agent document_analyzer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" && len(files) == 0 {
				return errors.New("one of --text or --file is required")
			}

			req := orchestrator.Request{
				ProfileID: profileID,
				Text:      text,
				Agent:     orchestrator.AgentKind(agent),
				Narrate:   narrate,
			}
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				req.Attachments = append(req.Attachments, data)
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				resp, err := a.Orchestrator.Analyze(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "household profile id")
	cmd.Flags().StringVar(&text, "text", "", "message text")
	cmd.Flags().StringSliceVar(&files, "file", nil, "document to analyze (repeatable)")
	cmd.Flags().StringVar(&agent, "agent", "", "force an agent (document_analyzer, scam_detector, transaction_safety, advisor)")
	cmd.Flags().BoolVar(&narrate, "narrate", false, "ask the language model for a plain explanation")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}
