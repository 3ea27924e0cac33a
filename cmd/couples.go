package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// couplesCmd implements: palmares couples --group <club> | --search <name>
var couplesCmd = &cobra.Command{
	Use:   "couples",
	Short: "List the couples of a club, or search couples by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		group, _ := cmd.Flags().GetString("group")
		search, _ := cmd.Flags().GetString("search")

		if (group == "") == (search == "") {
			return errors.New("exactly one of --group or --search is required")
		}

		var couples []string
		if group != "" {
			dir, err := directory(provider, "getGroupCouples")
			if err != nil {
				return err
			}
			if couples, err = dir.GetGroupCouples(cmd.Context(), group); err != nil {
				return err
			}
		} else {
			dir, err := directory(provider, "searchCouples")
			if err != nil {
				return err
			}
			if couples, err = dir.SearchCouples(cmd.Context(), search); err != nil {
				return err
			}
		}
		for _, c := range couples {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(couplesCmd)
	couplesCmd.Flags().StringP("provider", "p", "FFDS", "Provider to query")
	couplesCmd.Flags().StringP("group", "g", "", "Club whose couples are listed")
	couplesCmd.Flags().StringP("search", "s", "", "Dancer name to search for")
}
