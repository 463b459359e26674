package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/client"
	"github.com/sorenmh/nextintern/internal/internctl/output"
)

var internshipCmd = &cobra.Command{
	Use:     "internship",
	Aliases: []string{"internships"},
	Short:   "Post and view internships",
}

var internshipGetCmd = &cobra.Command{
	Use:   "get [internship-id]",
	Short: "Show an internship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		in, err := env.client.GetInternship(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return env.out.Print(in, func() { printInternship(env.out, in) })
	},
}

var internshipCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new internship (providers)",
	Long: `Post a new internship owned by the logged-in provider.

The deadline accepts RFC 3339 timestamps or plain dates (end of day UTC).

Example:
  internctl internship create --title "Backend Intern" --company Acme --deadline 2026-12-01 --max-applicants 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := env.requireSession(cmd.Context()); err != nil {
			return err
		}

		req := client.CreateInternshipRequest{}
		req.Title, _ = cmd.Flags().GetString("title")
		req.CompanyName, _ = cmd.Flags().GetString("company")
		req.Description, _ = cmd.Flags().GetString("description")
		if req.Title == "" || req.CompanyName == "" {
			return fmt.Errorf("--title and --company are required")
		}

		if raw, _ := cmd.Flags().GetString("deadline"); raw != "" {
			deadline, err := parseDeadline(raw)
			if err != nil {
				return err
			}
			req.ApplicationDeadline = &deadline
		}
		if cmd.Flags().Changed("max-applicants") {
			n, _ := cmd.Flags().GetInt("max-applicants")
			req.MaxApplicants = &n
		}

		in, err := env.client.CreateInternship(cmd.Context(), req)
		if err != nil {
			return err
		}

		return env.out.Print(in, func() {
			env.out.Success("Internship posted")
			printInternship(env.out, in)
		})
	},
}

var internshipListCmd = &cobra.Command{
	Use:   "list",
	Short: "List internships open for applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}

		page, size := pageFlags(cmd)
		p, err := env.client.ListInternships(cmd.Context(), page, size)
		if err != nil {
			return err
		}
		return printInternshipPage(env, p)
	},
}

var internshipMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the internships you posted (providers)",
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
		p, err := env.client.ListMyInternships(cmd.Context(), page, size)
		if err != nil {
			return err
		}
		return printInternshipPage(env, p)
	},
}

// newInternshipStatusCmd builds the close and reopen commands
func newInternshipStatusCmd(use, status, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [internship-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireSession(cmd.Context()); err != nil {
				return err
			}

			in, err := env.client.SetInternshipStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			return env.out.Print(in, func() {
				env.out.Success(fmt.Sprintf("%s: %s", in.Title, done))
			})
		},
	}
}

func parseDeadline(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	return d.Add(24*time.Hour - time.Second), nil
}

func printInternship(p *output.Printer, in *client.Internship) {
	deadline := "-"
	if in.ApplicationDeadline != nil {
		deadline = output.FormatTime(*in.ApplicationDeadline)
	}
	limit := "-"
	if in.MaxApplicants != nil {
		limit = strconv.Itoa(*in.MaxApplicants)
	}

	p.Info(fmt.Sprintf("  ID:       %s", in.ID))
	p.Info(fmt.Sprintf("  Title:    %s", in.Title))
	p.Info(fmt.Sprintf("  Company:  %s", in.CompanyName))
	p.Info(fmt.Sprintf("  Status:   %s", in.Status))
	p.Info(fmt.Sprintf("  Deadline: %s", deadline))
	p.Info(fmt.Sprintf("  Limit:    %s", limit))
}

func printInternshipPage(env *cliEnv, p *client.InternshipPage) error {
	if len(p.Content) == 0 && env.out.Format == output.FormatTable {
		env.out.Info("No internships found")
		return nil
	}

	return env.out.Print(p, func() {
		headers := []string{"ID", "TITLE", "COMPANY", "STATUS", "DEADLINE"}
		rows := make([][]string, 0, len(p.Content))
		for _, in := range p.Content {
			deadline := "-"
			if in.ApplicationDeadline != nil {
				deadline = output.FormatTime(*in.ApplicationDeadline)
			}
			rows = append(rows, []string{in.ID, in.Title, in.CompanyName, in.Status, deadline})
		}
		env.out.Table(headers, rows)
		env.out.Info(fmt.Sprintf("\nPage %d of %d (%d total)", p.Page+1, max(p.TotalPages, 1), p.TotalElements))
	})
}

func init() {
	rootCmd.AddCommand(internshipCmd)
	internshipCmd.AddCommand(internshipGetCmd)
	internshipCmd.AddCommand(internshipCreateCmd)
	internshipCmd.AddCommand(internshipListCmd)
	internshipCmd.AddCommand(internshipMineCmd)
	internshipCmd.AddCommand(newInternshipStatusCmd("close", "closed", "Stop accepting applications (providers)", "closed to new applications"))
	internshipCmd.AddCommand(newInternshipStatusCmd("reopen", "active", "Accept applications again (providers)", "open for applications"))

	for _, c := range []*cobra.Command{internshipListCmd, internshipMineCmd} {
		c.Flags().Int("page", 0, "page number, starting at 0")
		c.Flags().Int("size", 20, "page size (max 100)")
	}

	internshipCreateCmd.Flags().String("title", "", "internship title")
	internshipCreateCmd.Flags().String("company", "", "company name")
	internshipCreateCmd.Flags().String("description", "", "description")
	internshipCreateCmd.Flags().String("deadline", "", "application deadline")
	internshipCreateCmd.Flags().Int("max-applicants", 0, "maximum number of applications")
}
