//go:build dev

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"uniq/cli/internal/auth"
	"uniq/cli/internal/backend"
)

// devLoginCmd exists only in dev builds. It signs in locally as the fixed
// bypass user without contacting the backend and persists nothing.
var devLoginCmd = &cobra.Command{
	Use:    "dev-login",
	Short:  "Sign in as the local development user (dev builds only)",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := auth.NewProvider(backend.New("http://127.0.0.1"))
		if err := p.DevBypassLogin(); err != nil {
			return err
		}
		u := p.User()
		fmt.Printf("🧪 Dev session: %s (%s)\n", u.Email, u.Provider)
		fmt.Println("   Nothing was saved; this session ends with the command.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devLoginCmd)
}
