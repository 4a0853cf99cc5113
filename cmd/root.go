// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the uniq CLI. It
// implements sign-in, sign-out and session inspection against the UniQ
// backend using the Cobra CLI framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "uniq",
	Short:         "UniQ command-line client",
	Long:          `uniq signs you in to UniQ and keeps the session in your OS keychain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !showVersion {
			return cmd.Help()
		}
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close(ctx)

		backendVersion, err := sess.api.GetVersion(ctx)
		if err != nil {
			sess.log.Debug("backend version unavailable", sess.errArg(err))
			backendVersion = "unknown"
		}
		fmt.Printf("uniq %s\nbackend %s\n", Version, backendVersion)
		return nil
	},
}

// Execute runs the CLI application. Ctrl-C cancels the command context so
// in-flight requests and the login page shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and backend version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
