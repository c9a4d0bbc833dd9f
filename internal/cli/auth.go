package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"options-desk/internal/config"
)

// newAuthCmd groups Kite Connect authentication helpers. The simulated feed
// needs none of this.
func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Kite Connect authentication",
	}
	cmd.AddCommand(newAuthInitCmd())
	cmd.AddCommand(newAuthLoginCmd(app))
	return cmd
}

func newAuthInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the credentials template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.CreateCredentialsTemplate("")
			if err != nil {
				return err
			}
			output.Success("✓ Credentials file at %s", path)
			output.Println("Fill in your Kite Connect api_key and api_secret, then run 'desk auth login'.")
			return nil
		},
	}
}

func newAuthLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Obtain a Kite Connect access token",
		Long: `Obtain a Kite Connect access token via the OAuth flow.

Opens the Zerodha login page, reads the request_token from the redirect
URL and exchanges it for an access token. Paste the token into
credentials.toml; Kite tokens expire daily.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			creds := app.Config.Credentials.Zerodha
			if creds.APIKey == "" || creds.APISecret == "" {
				output.Error("api_key and api_secret must be set in credentials.toml")
				return fmt.Errorf("missing Kite credentials")
			}

			client := kiteconnect.New(creds.APIKey)
			loginURL := client.GetLoginURL()

			output.Bold("Login URL:")
			output.Println(loginURL)
			output.Println()
			if err := openURL(loginURL); err != nil {
				output.Warning("Could not open browser automatically")
			}

			output.Info("After logging in, you'll be redirected to a URL like:")
			output.Dim("  https://your-redirect-url.com/?request_token=XXXXXX&status=success")
			output.Println()
			output.Bold("Paste the request_token value here:")

			reader := bufio.NewReader(os.Stdin)
			fmt.Print("> ")
			token, _ := reader.ReadString('\n')
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("no token provided")
			}

			session, err := client.GenerateSession(token, creds.APISecret)
			if err != nil {
				output.Error("Session exchange failed: %v", err)
				return err
			}

			output.Success("✓ Login successful for %s", session.UserName)
			output.Println()
			output.Bold("Access token:")
			output.Println(session.AccessToken)
			output.Println()
			output.Info("Save it as access_token in credentials.toml. Tokens expire daily.")
			return nil
		},
	}
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
