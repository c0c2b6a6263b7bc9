package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-authgate"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var identity authgate.Identity

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile one user's profile against the store",
		Long: `Run a single reconciliation for the given identity, creating or
correcting the stored profile, and print the resolved role.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := authgate.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx := context.Background()

			store, release, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer release()

			reconciler := authgate.NewReconciler(store, cfg.AllowList(),
				authgate.WithRolePrecedence(authgate.RolePrecedence(cfg.RolePrecedence)),
			)

			role, err := reconciler.Resolve(ctx, &identity)
			if role != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", identity.ID, role)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&identity.ID, "id", "", "identity ID (required)")
	cmd.Flags().StringVar(&identity.Email, "email", "", "identity email")
	cmd.Flags().StringVar(&identity.DisplayName, "name", "", "identity display name")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
