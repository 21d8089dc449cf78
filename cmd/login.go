package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the knowledge platform",
	Long: `Logs into the configured server and stores the session token in the
local state store for subsequent commands.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new platform account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func promptCredentials(withEmail bool) (username, password, email string, err error) {
	userPrompt := promptui.Prompt{Label: "Username"}
	if username, err = userPrompt.Run(); err != nil {
		return "", "", "", err
	}

	passPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	if password, err = passPrompt.Run(); err != nil {
		return "", "", "", err
	}

	if withEmail {
		emailPrompt := promptui.Prompt{Label: "Email (optional)", Default: ""}
		if email, err = emailPrompt.Run(); err != nil {
			return "", "", "", err
		}
	}
	return username, password, email, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	username, password, _, err := promptCredentials(false)
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	sess, err := client.Login(context.Background(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.SetToken(sess.Token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := store.SetUser(sess.User); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	fmt.Printf("Logged in as %s\n", sess.User.Username)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	username, password, email, err := promptCredentials(true)
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	sess, err := client.Register(context.Background(), username, password, email)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := store.SetToken(sess.Token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := store.SetUser(sess.User); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	fmt.Printf("Account created; logged in as %s\n", sess.User.Username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ClearAuth(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.User()
	if err != nil {
		return fmt.Errorf("reading user: %w", err)
	}
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s (id %d)\n", user.Username, user.ID)
	if user.IsAdmin {
		fmt.Println("role: admin")
	}
	return nil
}
