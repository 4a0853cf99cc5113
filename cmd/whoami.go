package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// whoamiCmd shows who the current session belongs to.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command asks the backend who owns the saved session and prints
the account email. If the session is missing or expired it says so.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close(ctx)

		sess.start(ctx)
		u := sess.auth.User()
		if u == nil {
			printNotLoggedIn()
			return nil
		}
		identifier := u.Email
		if identifier == "" {
			identifier = "(no email on record)"
		}
		fmt.Printf("👤 Current user: %s\n", identifier)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
