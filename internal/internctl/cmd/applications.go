package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/internctl/output"
	"github.com/sorenmh/nextintern/internal/lifecycle"
)

var applyCmd = &cobra.Command{
	Use:   "apply [internship-id]",
	Short: "Apply to an internship (students)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		note, _ := cmd.Flags().GetString("cover-note")
		app, err := env.client.Apply(cmd.Context(), args[0], note)
		if err != nil {
			return err
		}

		return env.out.Print(app, func() {
			env.out.Success(fmt.Sprintf("Applied to %s", app.Internship.Title))
			env.out.Info(fmt.Sprintf("  Application: %s", app.ID))
			env.out.Info(fmt.Sprintf("  Status:      %s", app.Status))
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw [internship-id]",
	Short: "Withdraw your application to an internship (students)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		if err := env.client.Withdraw(cmd.Context(), args[0]); err != nil {
			return err
		}
		env.out.Success("Application withdrawn")
		return nil
	},
}

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"application", "apps"},
	Short:   "View and decide on applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list [internship-id]",
	Short: "List the applications to one of your internships (providers)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		page, size := pageFlags(cmd)
		p, err := env.status.ListForInternship(cmd.Context(), args[0], page, size)
		if err != nil {
			return err
		}
		return printApplicationPage(env, p)
	},
}

var applicationsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own applications (students)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		page, size := pageFlags(cmd)
		p, err := env.status.ListMine(cmd.Context(), page, size)
		if err != nil {
			return err
		}
		return printApplicationPage(env, p)
	},
}

var applicationsActionsCmd = &cobra.Command{
	Use:   "actions [application-id]",
	Short: "Show the actions you may take on an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		s, err := env.requireSession(cmd.Context())
		if err != nil {
			return err
		}

		internshipID, _ := cmd.Flags().GetString("internship")
		app, err := env.loadApplication(cmd.Context(), s, internshipID, args[0])
		if err != nil {
			return err
		}

		actions := env.status.Actions(app.ID)
		names := make([]string, 0, len(actions))
		for _, a := range actions {
			names = append(names, string(a))
		}

		data := map[string]interface{}{"applicationId": app.ID, "status": app.Status, "actions": names}
		return env.out.Print(data, func() {
			env.out.Info(fmt.Sprintf("  Status:  %s", app.Status))
			if len(names) == 0 {
				env.out.Info("  Actions: none")
				return
			}
			env.out.Info(fmt.Sprintf("  Actions: %s", strings.Join(names, ", ")))
		})
	},
}

var applicationsSetStatusCmd = &cobra.Command{
	Use:   "set-status [application-id] [status]",
	Short: "Move an application to a new status (providers)",
	Long: `Move an application to shortlisted, accepted or rejected.

Example:
  internctl applications set-status 9b0e... shortlisted --internship 6f1c...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := lifecycle.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return transition(cmd, args[0], func(env *cliEnv, id string) (*client.Application, error) {
			return env.status.RequestTransition(cmd.Context(), id, target)
		})
	},
}

// newActionCmd builds the shortlist, accept and reject commands
func newActionCmd(action lifecycle.Action, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   fmt.Sprintf("%s [application-id]", action),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(cmd, args[0], func(env *cliEnv, id string) (*client.Application, error) {
				return env.status.Perform(cmd.Context(), id, action)
			})
		},
	}
	c.Flags().String("internship", "", "internship the application belongs to")
	return c
}

func transition(cmd *cobra.Command, applicationID string, run func(env *cliEnv, id string) (*client.Application, error)) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	s, err := env.requireSession(cmd.Context())
	if err != nil {
		return err
	}

	internshipID, _ := cmd.Flags().GetString("internship")
	before, err := env.loadApplication(cmd.Context(), s, internshipID, applicationID)
	if err != nil {
		return err
	}

	app, err := run(env, applicationID)
	if err != nil {
		return err
	}

	return env.out.Print(app, func() {
		env.out.Success(fmt.Sprintf("%s: %s -> %s", app.Student.FullName, before.Status, app.Status))
	})
}

func pageFlags(cmd *cobra.Command) (int, int) {
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")
	return page, size
}

func printApplicationPage(env *cliEnv, p *client.ApplicationPage) error {
	if len(p.Content) == 0 && env.out.Format == output.FormatTable {
		env.out.Info("No applications found")
		return nil
	}

	now := time.Now()
	return env.out.Print(p, func() {
		headers := []string{"ID", "STUDENT", "INTERNSHIP", "STATUS", "APPLIED"}
		rows := make([][]string, 0, len(p.Content))
		for _, app := range p.Content {
			rows = append(rows, []string{
				app.ID,
				app.Student.FullName,
				app.Internship.Title,
				app.Status.String(),
				output.FormatTimeAgo(app.AppliedAt, now),
			})
		}
		env.out.Table(headers, rows)
		env.out.Info(fmt.Sprintf("\nPage %d of %d (%d total)", p.Page+1, max(p.TotalPages, 1), p.TotalElements))
	})
}

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(applicationsCmd)

	applyCmd.Flags().String("cover-note", "", "cover note sent with the application")

	applicationsCmd.AddCommand(applicationsListCmd)
	applicationsCmd.AddCommand(applicationsMineCmd)
	applicationsCmd.AddCommand(applicationsActionsCmd)
	applicationsCmd.AddCommand(applicationsSetStatusCmd)
	applicationsCmd.AddCommand(newActionCmd(lifecycle.ActionShortlist, "Shortlist an applied application"))
	applicationsCmd.AddCommand(newActionCmd(lifecycle.ActionAccept, "Accept a shortlisted application"))
	applicationsCmd.AddCommand(newActionCmd(lifecycle.ActionReject, "Reject an application"))

	for _, c := range []*cobra.Command{applicationsListCmd, applicationsMineCmd} {
		c.Flags().Int("page", 0, "page number, starting at 0")
		c.Flags().Int("size", 20, "page size (max 100)")
	}
	for _, c := range []*cobra.Command{applicationsActionsCmd, applicationsSetStatusCmd} {
		c.Flags().String("internship", "", "internship the application belongs to")
	}
}
