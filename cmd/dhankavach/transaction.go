package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dhankavach/internal/app"
	"dhankavach/internal/domain/models"
)

func checkTransactionCmd() *cobra.Command {
	var (
		profileID string
		tx        models.TransactionRequest
		amount    string
	)

	cmd := &cobra.Command{
		Use:   "check-transaction",
		Short: "Check a payment before it is sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if tx.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				resp, err := a.Orchestrator.CheckTransaction(ctx, profileID, tx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "household profile id")
	cmd.Flags().StringVar(&tx.Recipient, "to", "", "recipient phone number, UPI handle or account")
	cmd.Flags().StringVar(&tx.RecipientName, "name", "", "how the payer describes the recipient")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in rupees")
	cmd.Flags().StringVar(&tx.Currency, "currency", "INR", "currency code")
	cmd.Flags().StringVar(&tx.Purpose, "purpose", "", "what the payment is for")
	cmd.Flags().StringVar(&tx.Ref, "ref", "", "transaction reference (generated when empty)")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
