package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tonimelisma/putiodown/internal/config"
	"github.com/tonimelisma/putiodown/internal/putio"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a put.io access token",
		Long: `Save a put.io access token for later commands.

Without --token, the put.io token page is opened in a browser and the token
is read from standard input (hidden when stdin is a terminal).`,
		RunE: runLogin,
	}

	cmd.Flags().String("token", "", "access token (skips the prompt)")
	cmd.Flags().Bool("no-browser", false, "print the token page URL instead of opening it")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved authentication token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated account and disk usage",
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return err
	}

	if token == "" {
		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		url := putio.AppTokenURL(putio.DefaultClientID)

		// The token page URL must always be visible, not suppressed by --quiet.
		fmt.Fprintf(os.Stderr, "Get a token at: %s\n", url)

		if !noBrowser {
			if err := openBrowser(url); err != nil {
				cc.Logger.Debug("could not open browser", slog.String("error", err.Error()))
			}
		}

		token, err = readToken(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
	}

	acct, err := login(cmd.Context(), cc, config.DefaultTokenPath(), token)
	if err != nil {
		return err
	}

	cc.Statusf("Logged in as %s.\n", acct.Username)

	return nil
}

// login verifies token against the account endpoint and saves it with the
// account's identity as metadata.
func login(ctx context.Context, cc *CLIContext, tokenPath, token string) (*putio.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("no token given")
	}

	session := newSessionWithToken(cc.Cfg, putio.StaticToken(token), cc.Logger)

	acct, err := session.Client.AccountInfo(ctx)
	if err != nil {
		if errors.Is(err, putio.ErrUnauthorized) {
			return nil, errors.New("put.io rejected the token")
		}

		return nil, fmt.Errorf("verifying token: %w", err)
	}

	meta := map[string]string{
		putio.MetaUsername: acct.Username,
		putio.MetaEmail:    acct.Email,
	}

	if err := putio.SaveToken(tokenPath, token, meta); err != nil {
		return nil, err
	}

	cc.Logger.Info("login successful", slog.String("username", acct.Username))

	return acct, nil
}

// readToken prompts on prompt and reads one line from in. Input from a
// terminal is not echoed.
func readToken(in *os.File, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Token: ")

	if isatty.IsTerminal(in.Fd()) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}

		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// openBrowser asks the desktop to open url.
func openBrowser(url string) error {
	var c *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}

	return c.Start()
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if err := putio.Logout(config.DefaultTokenPath(), cc.Logger); err != nil {
		return err
	}

	cc.Statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	DiskUsed  int64  `json:"disk_used"`
	DiskAvail int64  `json:"disk_avail"`
	DiskSize  int64  `json:"disk_size"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	session, err := NewSession(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	acct, err := session.Client.AccountInfo(cmd.Context())
	if err != nil {
		return err
	}

	return printWhoami(cmd.OutOrStdout(), acct, cc.Flags.JSON)
}

func printWhoami(w io.Writer, acct *putio.Account, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(whoamiOutput{
			Username:  acct.Username,
			Email:     acct.Email,
			DiskUsed:  acct.DiskUsed,
			DiskAvail: acct.DiskAvail,
			DiskSize:  acct.DiskSize,
		}); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	fmt.Fprintf(w, "User:  %s (%s)\n", acct.Username, acct.Email)
	fmt.Fprintf(w, "Disk:  %s used / %s (%s free)\n",
		formatSize(acct.DiskUsed), formatSize(acct.DiskSize), formatSize(acct.DiskAvail))

	return nil
}
