package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"greetsend/pkg/auth"
	"greetsend/pkg/ui"
)

var (
	showGuide bool
	logoutAll bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage WhatsApp Cloud API credentials",
	Long: `Manage stored WhatsApp Cloud API credentials for the cloud backend.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (` + auth.EnvAccessToken + `, ` + auth.EnvPhoneNumberID + `)

The browser backend needs none of this; it uses your WhatsApp Web login.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store Cloud API credentials securely",
	Long: `Store a Cloud API access token and phone number ID under an account
name. The name defaults to 'default'.

You will be prompted for:
  - Phone number ID
  - Access token (hidden as you type)
  - WhatsApp Business Account ID (optional)`,
	Example: `  # Interactive login with the step-by-step guide
  greetsend auth login --guide

  # Store credentials as the 'eid' account
  greetsend auth login eid`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Example: `  greetsend auth logout eid
  greetsend auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List stored Cloud API accounts with masked tokens.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&showGuide, "guide", false, "show how to obtain the credentials first")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	if showGuide {
		auth.ShowTokenGuide(os.Stdout)
	} else {
		auth.ShowQuickTokenGuide(os.Stdout)
	}
	fmt.Println()

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Phone number ID: ")
	phoneID, err := reader.ReadString('\n')
	if err != nil && phoneID == "" {
		return fmt.Errorf("failed to read phone number ID: %w", err)
	}
	phoneID = strings.TrimSpace(phoneID)
	if phoneID == "" || strings.Trim(phoneID, "0123456789") != "" {
		return fmt.Errorf("phone number ID must be the numeric ID from API Setup, not the phone number")
	}

	fmt.Print("Access token (hidden): ")
	token, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if err := auth.ValidateToken(token); err != nil {
		return err
	}

	fmt.Print("WhatsApp Business Account ID (optional): ")
	businessID, _ := reader.ReadString('\n')

	account := &auth.Account{
		Name:          name,
		PhoneNumberID: phoneID,
		AccessToken:   token,
		BusinessID:    strings.TrimSpace(businessID),
	}

	fmt.Println("\nSummary:")
	sanitized := auth.SanitizeAccount(account)
	fmt.Printf("   Account: %s\n", sanitized.Name)
	fmt.Printf("   Phone number ID: %s\n", sanitized.PhoneNumberID)
	fmt.Printf("   Access token: %s (hidden)\n", sanitized.AccessToken)

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))
	fmt.Println("\nSend with it:")
	fmt.Printf("   $ greetsend send --backend cloud --account %s\n", name)
	fmt.Println("\nNever share your access token or config files!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove all accounts: %w", err)
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'greetsend auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s\n", i+1, sanitized.Name)
		fmt.Printf("   Phone number ID: %s\n", sanitized.PhoneNumberID)
		fmt.Printf("   Access token: %s\n", sanitized.AccessToken)
		if sanitized.BusinessID != "" {
			fmt.Printf("   Business account: %s\n", sanitized.BusinessID)
		}
		fmt.Printf("   Last modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
