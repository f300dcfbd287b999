package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Reddit API credentials",
	Long: `Manage stored Reddit script-app credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (BDFR_CLIENT_ID, BDFR_CLIENT_SECRET,
    BDFR_USERNAME, BDFR_PASSWORD)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Reddit credentials securely",
	Long: `Store Reddit script-app credentials in the system keychain or an
encrypted file.

You will be prompted for:
  - Client ID (shown under the app name on reddit.com/prefs/apps)
  - Client secret
  - Reddit username (if not provided)
  - Reddit password

Run 'bdfr auth guide' for step-by-step instructions on creating the
script app these values come from.`,
	Example: `  # Interactive login
  bdfr auth login

  # Login for a specific account
  bdfr auth login example_user`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored Reddit credentials.

If no username is provided, you will be shown the stored accounts to
choose from.`,
	Example: `  # Interactive logout
  bdfr auth logout

  # Logout a specific account
  bdfr auth logout example_user`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Reddit accounts with their secrets masked.`,
	Run:   runAuthList,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the Reddit script app setup guide",
	Long:  `Show step-by-step instructions for creating the Reddit script app whose client ID and secret this tool needs.`,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowSetupGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(guideCmd)

	authCmd.PersistentFlags().StringVar(&credentialStore, "credential-store", "", "where credentials live: keyring, encrypted or env")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager(credentialStore)
	if err != nil {
		fatal("failed to initialize credential manager: %v", err)
	}

	defaults := &auth.Credentials{}
	if len(args) > 0 {
		defaults.Username = strings.TrimSpace(args[0])
	}

	// Prefill from an existing account so Enter keeps the stored values
	if defaults.Username != "" {
		if existing, err := manager.Retrieve(defaults.Username); err == nil {
			fmt.Printf("Account %q already exists; press Enter at any prompt to keep the stored value.\n", defaults.Username)
			defaults = existing
		}
	}

	auth.ShowQuickSetupGuide()
	fmt.Println()

	creds, err := auth.PromptCredentials(defaults)
	if err != nil {
		fatal("failed to read credentials: %v", err)
	}

	if err := manager.Store(creds); err != nil {
		fatal("failed to store credentials: %v", err)
	}

	fmt.Println("\n✅ Credentials stored for", creds.Username)
	fmt.Println("\nQuick start:")
	fmt.Println("  bdfr download ./reddit --subreddit pics --limit 10")
	fmt.Printf("  bdfr download ./reddit --subreddit pics --account %s\n", creds.Username)
	fmt.Println("\n⚠️  Never share your credentials or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager(credentialStore)
	if err != nil {
		fatal("failed to initialize credential manager: %v", err)
	}

	// Username provided as argument
	if len(args) > 0 {
		username := strings.TrimSpace(args[0])
		if err := manager.Delete(username); err != nil {
			fatal("failed to remove account %q: %v", username, err)
		}
		fmt.Println("Account removed:", username)
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		fmt.Println("No stored accounts found.")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	// Only one account, confirm deletion
	if len(accounts) == 1 {
		username := accounts[0].Username
		fmt.Printf("Remove account %q? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(username); err != nil {
			fatal("failed to remove account %q: %v", username, err)
		}
		fmt.Println("Account removed:", username)
		return
	}

	// Multiple accounts, show menu
	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Username)
	}
	fmt.Println("  0. Cancel")
	fmt.Print("\nChoice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)
	if choice < 1 || choice > len(accounts) {
		return
	}

	username := accounts[choice-1].Username
	if err := manager.Delete(username); err != nil {
		fatal("failed to remove account %q: %v", username, err)
	}
	fmt.Println("Account removed:", username)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager(credentialStore)
	if err != nil {
		fatal("failed to initialize credential manager: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		fatal("failed to list accounts: %v", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'bdfr auth login' to add one.")
		return
	}

	fmt.Println("Stored accounts:")
	fmt.Println()
	for i, account := range accounts {
		sanitized := account.Sanitized()
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Client ID: %s\n", sanitized.ClientID)
		fmt.Printf("   Client secret: %s\n", sanitized.ClientSecret)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}
