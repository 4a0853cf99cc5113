// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var meJSON bool

// meCmd prints the full auth state, for people and for scripts.
var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current auth state",
	Long: `The me command checks the saved session with the backend and prints the
resulting auth state. With --json it prints {"user": ..., "loading": false}
for use in scripts.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close(ctx)

		if meJSON {
			sess.auth.Start(ctx)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sess.auth.Snapshot())
		}

		sess.start(ctx)
		u := sess.auth.User()
		if u == nil {
			printNotLoggedIn()
			return nil
		}
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Email", u.Email},
			{"Provider", string(u.Provider)},
			{"API", sess.api.BaseURL()},
		}).Render()
	},
}

func init() {
	rootCmd.AddCommand(meCmd)
	meCmd.Flags().BoolVar(&meJSON, "json", false, "Print the auth state as JSON")
}
