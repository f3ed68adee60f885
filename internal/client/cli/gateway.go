package cli

import (
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the local offline gateway",
	Long: `Starts the local caching proxy the client routes its traffic
through. While it runs, previously visited pages, static assets and cached
sheet music stay reachable without a network connection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := application.StartGateway(ctx); err != nil {
			return err
		}
		color.Green("Offline gateway listening on %s (Ctrl-C to stop)", cfg.GatewayAddr)

		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}
