// AngelaMos | 2026
// sweep.go

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/bloghub/internal/purchase"
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Fail Pending transactions that were never verified",
		Long: `Marks Pending transactions older than the window as Failed.

Only rows still Pending are touched, so a purchase verified while the
sweep runs keeps its Paid status. Run it from cron, for example:

  bloghubctl sweep --older-than 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if olderThan == 0 {
				olderThan = e.cfg.Purchase.StaleAfter
			}

			svc := purchase.NewService(
				purchase.NewRepository(e.db.DB),
				nil, nil, nil, nil, nil,
				purchase.Options{},
				e.logger,
			)
			n, err := svc.SweepStale(cmd.Context(), olderThan)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d stale transaction(s) marked Failed\n", n)
			return nil
		},
	}

	cmd.Flags().Duration("older-than", time.Duration(0),
		"age after which a Pending transaction is failed (default purchase.stale_after)")

	return cmd
}
