package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/storage"
	"github.com/spf13/cobra"
)

// listCmd implements: palmares list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored competitions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		place, _ := cmd.Flags().GetString("place")
		sinceStr, _ := cmd.Flags().GetString("since")
		untilStr, _ := cmd.Flags().GetString("until")
		offset, _ := cmd.Flags().GetInt("offset")
		size, _ := cmd.Flags().GetInt("size")
		asJSON, _ := cmd.Flags().GetBool("json")

		since, err := parseDay(sinceStr)
		if err != nil {
			return err
		}
		until, err := parseDay(untilStr)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openExistingDB(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer db.Close()

		criteria := storage.Criteria{Provider: provider, Place: place, Since: since, Until: until}
		var fields []string
		if !asJSON {
			fields = []string{"place", "date", "provider", "contests"}
		}
		list, err := db.Find(cmd.Context(), competition.Kind, criteria, fields, offset, size)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("No competition found.")
			return nil
		}
		printCompetitions(os.Stdout, list)
		return nil
	},
}

func printCompetitions(out io.Writer, list []*competition.Competition) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DATE\tPLACE\tPROVIDER\tCONTESTS\tID")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.Date.Format(dayLayout), c.Place, c.Provider, len(c.Contests), c.ID)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("provider", "p", "", "Only list competitions of this provider")
	listCmd.Flags().String("place", "", "Only list competitions whose place contains this text")
	listCmd.Flags().String("since", "", "Only list competitions on or after this day (YYYY-MM-DD)")
	listCmd.Flags().String("until", "", "Only list competitions on or before this day (YYYY-MM-DD)")
	listCmd.Flags().Int("offset", 0, "Number of competitions to skip")
	listCmd.Flags().Int("size", 0, "Maximum number of competitions to list (0 for all)")
	listCmd.Flags().Bool("json", false, "Print competitions as JSON")
}
