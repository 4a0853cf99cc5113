// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"uniq/cli/internal/browserhost"
	"uniq/cli/internal/config"
	apperrors "uniq/cli/internal/errors"
	"uniq/cli/internal/gsi"
	"uniq/cli/internal/httperrors"
	"uniq/cli/internal/logging"
	"uniq/cli/internal/loginview"
	"uniq/cli/internal/terminal"
)

var (
	loginEmail     string
	loginFrom      string
	loginNoBrowser bool
	loginTimeout   time.Duration
)

// confirmationGrace bounds how long the login page may take to show its
// confirmation screen before the listener goes away.
const confirmationGrace = 3 * time.Second

// loginCmd signs the user in with Google through a local page opened in
// their browser, or with email and password.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with Google (or --email) and keep the session on this device",
	Long: `The login command opens a local sign-in page in your browser. Signing in with
Google there hands the credential back to the CLI, which exchanges it with the
UniQ backend for a session cookie kept in your OS keychain.

With --email the CLI asks for your password instead and signs in directly.
If a valid session already exists, nothing happens.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
		defer cancel()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close(context.WithoutCancel(ctx))

		sess.start(ctx)
		if u := sess.auth.User(); u != nil {
			fmt.Printf("Already logged in as %s\n", u.Email)
			return nil
		}

		if loginEmail != "" {
			return loginWithPassword(ctx, sess, loginEmail)
		}
		return loginWithGoogle(ctx, sess)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Sign in with this email and a password prompt")
	loginCmd.Flags().StringVar(&loginFrom, "from", "", "Path to continue to after sign-in (default /home)")
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 5*time.Minute, "Give up waiting for sign-in after this long")
}

func loginWithPassword(ctx context.Context, sess *session, email string) error {
	const prompt = "Password: "
	password, err := terminal.ReadSecret(prompt)
	if err != nil {
		if errors.Is(err, terminal.ErrEmptyInput) {
			return errors.New("password is required")
		}
		return err
	}
	terminal.ClearPreviousLines(len(prompt))

	stop := startSpinner("Signing in").Stop
	err = sess.auth.LoginWithEmail(ctx, email, password)
	stop()

	switch apperrors.KindOf(err) {
	case "":
	case apperrors.LoginFailed:
		pterm.Error.Println("Login failed. Check your email and password.")
		return err
	case apperrors.NetworkFailure:
		return httperrors.FormatNetworkError(err, "signing in", httperrors.ExtractHostFromURL(sess.cfg.APIBaseURL))
	default:
		pterm.Error.Println(logging.PresentError("Sign-in failed", err))
		return err
	}

	fmt.Println(greeting(sess.auth.User().Email))
	return nil
}

func loginWithGoogle(ctx context.Context, sess *session) error {
	notifier := &terminalNotifier{}
	host, err := browserhost.New(
		browserhost.WithLogger(sess.log),
		browserhost.WithEcho(notifier),
	)
	if err != nil {
		return err
	}
	if err := host.Start(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = host.Close(closeCtx)
	}()

	var nav loginview.NavigationState
	if loginFrom != "" {
		nav.From = &loginview.Location{Pathname: loginFrom}
	}
	view := loginview.New(loginview.Deps{
		Auth:      sess.auth,
		Backend:   sess.api,
		Widget:    host,
		Loader:    gsi.NewLoader(host),
		Navigator: host,
		Notifier:  host,
		Theme:     host,
		Renderer:  host,
		State:     nav,
		ClientID:  config.GoogleClientID,
		Logger:    sess.log,
	})
	view.Mount(ctx)
	defer view.Unmount()

	fmt.Println("Open this link to sign in:")
	fmt.Printf("%s\n\n", host.URL())
	if !loginNoBrowser {
		if err := openBrowser(host.URL()); err != nil {
			sess.log.Debug("could not open a browser", sess.errArg(err))
		}
	}

	sp := startSpinner("Waiting for sign-in in your browser")
	notifier.attach(sp)
	stop := func() {
		notifier.attach(nil)
		sp.Stop()
	}
	select {
	case target := <-host.Done():
		stop()
		select {
		case <-host.Finished():
		case <-time.After(confirmationGrace):
		}
		if u := sess.auth.User(); u != nil {
			fmt.Println(greeting(u.Email))
		}
		fmt.Printf("Continue at %s%s\n", sess.cfg.AppBaseURL(), target)
		return nil
	case <-ctx.Done():
		stop()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.New("login timed out")
		}
		return ctx.Err()
	}
}
