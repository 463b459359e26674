package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/output"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit log, newest first (admins)",
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
		p, err := env.client.ListAuditLog(cmd.Context(), page, size)
		if err != nil {
			return err
		}

		if len(p.Content) == 0 && env.out.Format == output.FormatTable {
			env.out.Info("No audit entries found")
			return nil
		}

		now := time.Now()
		return env.out.Print(p, func() {
			headers := []string{"WHEN", "ACTOR", "ACTION", "TARGET", "DETAILS"}
			rows := make([][]string, 0, len(p.Content))
			for _, e := range p.Content {
				rows = append(rows, []string{
					output.FormatTimeAgo(e.CreatedAt, now),
					e.ActorID,
					e.Action,
					e.TargetType + " " + e.TargetID,
					e.Details,
				})
			}
			env.out.Table(headers, rows)
			env.out.Info(fmt.Sprintf("\nPage %d of %d (%d total)", p.Page+1, max(p.TotalPages, 1), p.TotalElements))
		})
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Int("page", 0, "page number, starting at 0")
	auditCmd.Flags().Int("size", 20, "page size (max 100)")
}
