package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/shared/config"
)

var (
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "internctl",
	Short: "NextIntern CLI for internship applications",
	Long: `internctl is a command-line client for the NextIntern internship platform.

It allows you to:
  - Register, log in and manage your session
  - Post internships and view their applications (providers)
  - Apply to and withdraw from internships (students)
  - Shortlist, accept and reject applicants (providers)
  - Browse open internships and close or reopen your own
  - Read the audit log (admins)

Configuration:
  Environment variables:
    INTERNCTL_URL       - internd API endpoint (default http://localhost:8080)

  Config file (~/.nextintern/config.yaml):
    url: https://internd.example.com
    email: student@example.com

  The login session is stored in the same file. CLI flags override
  environment variables and the config file.

Example usage:
  internctl login --email provider@example.com
  internctl applications list 6f1c2a52-...
  internctl applications shortlist 9b0e... --internship 6f1c2a52-...`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are returned, not printed.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.InitConfig()
	config.AddFlags(rootCmd)

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and status transitions to stderr")
}
