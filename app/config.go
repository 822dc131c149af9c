package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cernauth/cernauth/internal/config"
)

var dumpJSON bool //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "print as JSON, usable as CERNAUTH_CONFIG_JSON")

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dump := config.DumpConfig
		if dumpJSON {
			dump = config.DumpConfigJSON
		}

		out, err := dump(cfg)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)

		return err
	},
}
