package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Solve stale environments and update strata.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			check, _ := cmd.Flags().GetBool("check")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			return c.app.Lock(cmd.Context(), app.LockOptions{
				Check:       check,
				Concurrency: concurrency,
				OutputMode:  outputMode(cmd),
			})
		},
	}
	cmd.Flags().Bool("check", false, "Fail if strata.lock is out of date instead of updating it")
	cmd.Flags().IntP("concurrency", "j", 0, "Number of environments solved at once (default: settings or CPU count)")
	return cmd
}
