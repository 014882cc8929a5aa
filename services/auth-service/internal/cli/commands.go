package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"BizBooksPlatform/services/auth-service/internal/app"
)

func (r *root) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), "schema is up to date", map[string]string{"status": "migrated"})
			})
		},
	}
}

func (r *root) applyActivationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-activation <email>",
		Short: "Send a new activation code to a pending account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Auth.ApplyForActivation(ctx, args[0])
				if err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), res.Message, res)
			})
		},
	}
}

func (r *root) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <email>",
		Short: "Show the activation status of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				status, err := a.Auth.AccountStatus(ctx, args[0])
				if err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), fmt.Sprintf("%s\t%s", status.Email, status.Status), status)
			})
		},
	}
}

func (r *root) purgeCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-codes",
		Short: "Delete expired verification codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.PurgeExpiredCodes(ctx)
				if err != nil {
					return err
				}
				return r.print(cmd.OutOrStdout(), fmt.Sprintf("purged %d expired codes", n), map[string]int64{"purged": n})
			})
		},
	}
}
