package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [environments...]",
		Short: "Install locked environments, updating strata.lock first when needed",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frozen, _ := cmd.Flags().GetBool("frozen")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			platform, _ := cmd.Flags().GetString("platform")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			return c.app.Install(cmd.Context(), args, app.InstallOptions{
				Frozen:      frozen,
				DryRun:      dryRun,
				Platform:    platform,
				Concurrency: concurrency,
				OutputMode:  outputMode(cmd),
			})
		},
	}
	cmd.Flags().Bool("frozen", false, "Install from strata.lock as is, without solving")
	cmd.Flags().BoolP("dry-run", "n", false, "Print the operations without applying them")
	cmd.Flags().StringP("platform", "p", "", "Platform to install for (default: host platform)")
	cmd.Flags().IntP("concurrency", "j", 0, "Number of parallel solves and downloads (default: settings or CPU count)")
	return cmd
}
