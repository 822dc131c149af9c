package app

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cernauth/cernauth/internal/cern"
)

var errEmailRequired = errors.New("--email is required")

var lookupEmail string //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	lookupCmd.Flags().StringVar(&lookupEmail, "email", "", "e-mail address to look up")

	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "lookup",
	Short: "Look up a user in the CERN directory",
	Long: `lookup queries the CERN LDAP directory the way the sign-in fallback
does and prints the user info with hidden groups removed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if lookupEmail == "" {
			return errEmailRequired
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		remote := cfg.CERN.WithDefaults()

		filter, err := cern.NewGroupFilter(remote.HiddenGroups, remote.HiddenGroupsRE)
		if err != nil {
			return err
		}

		res := cern.NewDirectory(remote.LDAP).LookupByEmail(cmd.Context(), lookupEmail)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(cern.NewUserInfo(res, filter))
	},
}
