package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	statsSince  string
	statsRemote bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <memberID>",
	Short: "Show a member's attendance statistics",
	Long: `Computes attendance statistics from the locally cached attendance
records. Run "chorsync services" first to refresh them. With --remote the
server's full absence history is shown instead of the local cache.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		choirID, err := requireChoir()
		if err != nil {
			return err
		}

		if statsRemote {
			absences, err := application.Remote.GetMemberAbsenceHistory(cmd.Context(), choirID, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch absence history: %w", err)
			}
			if len(absences) == 0 {
				fmt.Println("No recorded absences.")
				return nil
			}
			fmt.Println("Absences (newest first):")
			for _, a := range absences {
				fmt.Printf("  %s  %s\n", color.CyanString(a.Date), a.Title)
			}
			return nil
		}

		stats := application.Attendance.Stats(cmd.Context(), choirID, args[0], statsSince)

		fmt.Printf("Present: %d   Absent: %d   Rate: %d%%\n",
			stats.PresentCount, stats.AbsentCount, stats.AttendanceRate)

		if len(stats.Absences) > 0 {
			fmt.Println("\nAbsences (newest first):")
			for _, a := range stats.Absences {
				fmt.Printf("  %s  %s\n", color.CyanString(a.Date), a.Title)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsSince, "since", "", "only count services on or after this date (YYYY-MM-DD)")
	statsCmd.Flags().BoolVar(&statsRemote, "remote", false, "fetch the absence history from the server instead of the local cache")
	rootCmd.AddCommand(statsCmd)
}
