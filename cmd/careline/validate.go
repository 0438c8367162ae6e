package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bloodplusfight/careline/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the server.

All validation errors are reported together, one per line.

Examples:
  # Validate the default config
  careline validate

  # Validate a specific file
  careline validate --config /etc/careline/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.LoadWithEnvOverrides(cfgFile)
		if err != nil {
			var verr config.ValidationError
			if errors.As(err, &verr) {
				for _, fe := range verr.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", fe.Error())
				}
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid: %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
