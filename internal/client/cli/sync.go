package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a delta sync of the choir repertoire",
	RunE: func(cmd *cobra.Command, _ []string) error {
		choirID, err := requireChoir()
		if err != nil {
			return err
		}

		res := application.SyncNow(cmd.Context(), choirID, syncForce)
		switch {
		case res.Skipped:
			color.Yellow("Sync skipped, last run was less than a minute ago (use --force)")
		case res.Synced:
			color.Green("Synced choir %s: %d updated, %d deleted", choirID, res.Updated, res.Deleted)
		default:
			color.Red("Sync failed: %s", res.Err)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "bypass the sync debounce")
	rootCmd.AddCommand(syncCmd)
}
