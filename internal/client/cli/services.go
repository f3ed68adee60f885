package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kantorei/chorsync/internal/client/cache/datacache"
	"github.com/kantorei/chorsync/internal/client/models"
)

var servicesLimit int

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List upcoming services",
	Long: `Lists the choir's upcoming services. Fetched from the server when
reachable (updating the local caches on the way), otherwise answered from
the local replica.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		choirID, err := requireChoir()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		services, err := application.Remote.ListUpcomingServices(ctx, choirID, servicesLimit)
		if err != nil {
			log.Warn(ctx, "server unreachable, falling back to cache", "error", err)
			if !application.Data.Get(ctx, datacache.KeyServices, choirID, &services) {
				return fmt.Errorf("server unreachable and no cached services available")
			}
			color.Yellow("(offline, showing cached services)")
		} else {
			application.Data.Set(ctx, datacache.KeyServices, choirID, services)
			application.Attendance.Record(ctx, choirID, services)
		}

		if len(services) == 0 {
			fmt.Println("No upcoming services.")
			return nil
		}
		for _, svc := range services {
			printService(svc)
		}
		return nil
	},
}

func printService(svc models.ChoirService) {
	when := svc.Date
	if svc.Time != "" {
		when += " " + svc.Time
	}
	fmt.Printf("%s  %s  (%d songs)\n", color.CyanString(when), svc.Title, len(svc.SongIDs))
}

func init() {
	servicesCmd.Flags().IntVarP(&servicesLimit, "limit", "n", 5, "maximum number of services to list")
	rootCmd.AddCommand(servicesCmd)
}
