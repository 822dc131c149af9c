// Package app implements the main application commands.
package app

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/logger"
)

const (
	envPrefix = "CERNAUTH"
	keyConfig = "config"
)

var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "cernauth",
	Short: "cernauth signs users in with their CERN account",
	Long: `cernauth links local accounts to CERN accounts through the CERN OAuth
service and derives role claims from the user's e-group memberships.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().String(keyConfig, "./etc/", "directory containing main.toml")

	if err := viper.BindPFlag(keyConfig, rootCmd.PersistentFlags().Lookup(keyConfig)); err != nil {
		log.Fatal().Err(err).Msg("failed to bind config flag")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration from the --config directory or
// CERNAUTH_CONFIG and initializes the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(viper.GetString(keyConfig))
	if err != nil {
		return nil, err
	}

	if err = logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	return &cfg, nil
}
