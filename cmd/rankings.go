package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/storage"
	"github.com/spf13/cobra"
)

// coupleRanking places a ranking in its competition.
type coupleRanking struct {
	Date     time.Time `json:"date"`
	Place    string    `json:"place"`
	Provider string    `json:"provider"`
	competition.Ranking
}

// coupleRankings lists the rankings of couple, in the order of competitions.
func coupleRankings(list []*competition.Competition, couple string) []coupleRanking {
	var rankings []coupleRanking
	for _, c := range list {
		for _, r := range competition.RankingsOf([]*competition.Competition{c}, couple) {
			rankings = append(rankings, coupleRanking{Date: c.Date, Place: c.Place, Provider: c.Provider, Ranking: r})
		}
	}
	return rankings
}

// rankingsCmd implements: palmares rankings <couple>
var rankingsCmd = &cobra.Command{
	Use:   "rankings <couple>",
	Short: "Print the stored rankings of a couple",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		sinceStr, _ := cmd.Flags().GetString("since")
		kind, _ := cmd.Flags().GetString("kind")
		asJSON, _ := cmd.Flags().GetBool("json")

		since, err := parseDay(sinceStr)
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

		list, err := db.Find(cmd.Context(), competition.Kind, storage.Criteria{Provider: provider, Since: since}, nil, 0, 0)
		if err != nil {
			return err
		}
		rankings := filterKind(coupleRankings(list, strings.Join(args, " ")), kind)

		if asJSON {
			return printJSON(os.Stdout, rankings)
		}
		if len(rankings) == 0 {
			fmt.Println("No ranking found.")
			return nil
		}
		printRankings(os.Stdout, rankings)
		return nil
	},
}

func filterKind(rankings []coupleRanking, kind string) []coupleRanking {
	if kind == "" {
		return rankings
	}
	kept := []coupleRanking{}
	for _, r := range rankings {
		if r.Kind == kind {
			kept = append(kept, r)
		}
	}
	return kept
}

func printRankings(out io.Writer, rankings []coupleRanking) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DATE\tPLACE\tCONTEST\tKIND\tRANK\tCOUPLE")
	for _, r := range rankings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n", r.Date.Format(dayLayout), r.Place, r.Contest, r.Kind, r.Rank, r.Total, r.Couple)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(rankingsCmd)
	rankingsCmd.Flags().StringP("provider", "p", "", "Only use competitions of this provider")
	rankingsCmd.Flags().String("since", "", "Only use competitions on or after this day (YYYY-MM-DD)")
	rankingsCmd.Flags().String("kind", "", "Only print this discipline: std, lat or ten")
	rankingsCmd.Flags().Bool("json", false, "Print rankings as JSON")
}
