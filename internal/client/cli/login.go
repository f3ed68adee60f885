package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate against the chorsync server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(args[0])

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if err := application.Remote.Login(cmd.Context(), email, string(password)); err != nil {
			return err
		}
		application.SaveSession(cmd.Context())

		color.Green("Logged in as %s", email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
