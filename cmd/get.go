package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/providers"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// getCmd implements: palmares get <id>
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored competition as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openExistingDB(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := db.FindByID(cmd.Context(), competition.Kind, args[0], nil)
		if err != nil {
			return err
		}
		if c == nil {
			return &providers.NotFoundError{Kind: "competition", Name: args[0]}
		}

		if path == "" {
			return printJSON(os.Stdout, c)
		}
		out, err := extractPath(c, path)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

// extractPath evaluates a gjson path against the competition's JSON form.
func extractPath(c *competition.Competition, path string) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return "", fmt.Errorf("nothing found at path %q", path)
	}
	if result.IsObject() || result.IsArray() {
		return result.Raw, nil
	}
	return result.String(), nil
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().String("path", "", "gjson path to extract, e.g. contests.#.title")
}
