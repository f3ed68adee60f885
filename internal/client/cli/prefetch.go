package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kantorei/chorsync/internal/client/notify"
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Warm the offline caches for the next services",
	Long: `Fetches the two nearest upcoming services and caches their sheet
music PDFs so they open without a network connection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		choirID, err := requireChoir()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := application.StartGateway(ctx); err != nil {
			return err
		}

		events, cancel := application.Events.Subscribe(notify.TopicPrefetchFinished)
		defer cancel()

		go application.Prefetch.Run(ctx, choirID)

		select {
		case <-events:
			color.Green("Prefetch finished")
		case <-ctx.Done():
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefetchCmd)
}
