// AngelaMos | 2026
// promote.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/bloghub/internal/user"
)

func promoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Give an existing account the admin role",
		Long: `Registration always creates ordinary users. This is how the first
admin is made. The new role applies from the user's next sign-in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := cmd.Flags().GetString("email")
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := user.NewService(user.NewRepository(e.db.DB), nil, 0, e.logger)
			u, err := svc.PromoteByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", u.Email, u.ID, u.Role)
			return nil
		},
	}

	cmd.Flags().String("email", "", "account email")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag exists

	return cmd
}
