package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sorenmh/nextintern/internal/internctl/output"
	"github.com/sorenmh/nextintern/internal/shared/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure internctl interactively",
	Long: `Prompt for the internd URL and a default login email and write them
to the config file. A stored session is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := config.ConfigureInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), config.GetURL(), config.GetEmail())
		if err != nil {
			return err
		}
		if err := config.SaveConfig(*req); err != nil {
			return err
		}

		p := &output.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
		p.Success("Configuration saved to " + config.ConfigFile())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
