package app

import (
	"github.com/spf13/cobra"

	"github.com/cernauth/cernauth/internal/daemon"
)

var devMode bool //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "start",
	Short: "Start the cernauth web service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if devMode {
			cfg.DevMode = true
		}

		d, err := daemon.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		return d.Start()
	},
}
