package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/internctl/output"
	"github.com/sorenmh/nextintern/internal/shared/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to internd",
	Long: `Log in and store the session in the config file.

The password is read from --password, the INTERNCTL_PASSWORD environment
variable, or an interactive prompt.

Example:
  internctl login --email student@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email, err = config.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Email", config.GetEmail())
			if err != nil {
				return err
			}
		}
		if email == "" {
			return fmt.Errorf("email is required")
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		s, err := env.sessions.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		env.out.Success(fmt.Sprintf("Logged in as %s (%s)", s.Email, s.Role))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and revoke the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}

		if _, ok := env.sessions.Current(); !ok {
			env.out.Info("Not logged in")
			return nil
		}
		if err := env.sessions.Logout(cmd.Context()); err != nil {
			// the local session is gone either way
			env.out.Warn(err.Error())
		}
		env.out.Success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}

		s, ok := env.sessions.Current()
		if !ok {
			return fmt.Errorf("not logged in; run 'internctl login' first")
		}

		return env.out.Print(s, func() {
			env.out.Info(fmt.Sprintf("  ID:      %s", s.UserID))
			env.out.Info(fmt.Sprintf("  Email:   %s", s.Email))
			env.out.Info(fmt.Sprintf("  Name:    %s", s.FullName))
			env.out.Info(fmt.Sprintf("  Role:    %s", s.Role))
			env.out.Info(fmt.Sprintf("  Expires: %s", output.FormatTime(s.ExpiresAt)))
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Long: `Create a student or provider account. On success the new session is
stored as if you had logged in.

Example:
  internctl register --email s@example.com --full-name "Sam Student" --role student --university "TU Delft"
  internctl register --email p@example.com --full-name "Pat Provider" --role provider --company "Acme"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}

		req := client.RegisterRequest{}
		req.Email, _ = cmd.Flags().GetString("email")
		req.FullName, _ = cmd.Flags().GetString("full-name")
		req.Role, _ = cmd.Flags().GetString("role")
		req.University, _ = cmd.Flags().GetString("university")
		req.EducationLevel, _ = cmd.Flags().GetString("education-level")
		req.ResumeURL, _ = cmd.Flags().GetString("resume-url")
		req.CompanyName, _ = cmd.Flags().GetString("company")

		if req.Email == "" || req.FullName == "" || req.Role == "" {
			return fmt.Errorf("--email, --full-name and --role are required")
		}

		req.Password, err = readPassword(cmd)
		if err != nil {
			return err
		}

		resp, err := env.client.Register(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		s, err := env.sessions.Adopt(resp)
		if err != nil {
			return err
		}

		env.out.Success(fmt.Sprintf("Registered %s as %s", s.Email, s.Role))
		return nil
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("INTERNCTL_PASSWORD"); p != "" {
		return p, nil
	}
	p, err := config.ReadPassword(cmd.OutOrStdout(), "Password")
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("password is required")
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)

	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password")
	registerCmd.Flags().String("full-name", "", "full name")
	registerCmd.Flags().String("role", "", "account role (student, provider)")
	registerCmd.Flags().String("university", "", "university (students)")
	registerCmd.Flags().String("education-level", "", "education level (students)")
	registerCmd.Flags().String("resume-url", "", "resume URL (students)")
	registerCmd.Flags().String("company", "", "company name (providers)")
}
