// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// logoutCmd ends the session on the backend (best effort) and always forgets
// it locally.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and remove it from this device",
	Long: `The logout command asks the backend to end the current session and removes
the session cookie from your OS keychain. The local session is removed even
if the backend cannot be reached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close(ctx)

		sess.auth.Logout(ctx)
		if err := sess.jar.Clear(); err != nil {
			sess.log.Warn("could not remove the saved session", sess.errArg(err))
		}

		fmt.Println("✅ Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
