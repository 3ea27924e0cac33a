package cmd

import (
	"fmt"
	"strings"

	"github.com/palmares-dance/palmares/internal/utils"
	"github.com/palmares-dance/palmares/pkg/providers"
	"github.com/spf13/cobra"
)

// directory returns the directory of the configured provider named name.
func directory(name, feature string) (providers.Directory, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Provider(name, utils.Log)
	if err != nil {
		return nil, err
	}
	return providers.DirectoryOf(p, feature)
}

// groupsCmd implements: palmares groups [query]
var groupsCmd = &cobra.Command{
	Use:   "groups [query]",
	Short: "Search clubs known by a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		dir, err := directory(provider, "searchGroups")
		if err != nil {
			return err
		}
		groups, err := dir.SearchGroups(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Println(g)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.Flags().StringP("provider", "p", "FFDS", "Provider to query")
}
