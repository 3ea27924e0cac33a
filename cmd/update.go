package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/palmares-dance/palmares/internal/utils"
	"github.com/palmares-dance/palmares/pkg/palmares"
	"github.com/palmares-dance/palmares/pkg/storage"
	"github.com/spf13/cobra"
)

// updateCmd implements: palmares update
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch new competition results from every provider and save them",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		lock, err := utils.NewDBLock(cfg.StoragePath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := storage.Open(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer db.Close()

		provs, err := cfg.BuildProviders(utils.Log)
		if err != nil {
			return err
		}
		o, err := palmares.New(palmares.Config{
			Providers: provs,
			Store:     db,
			PoolSize:  cfg.PoolSize,
			Log:       utils.Log,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := o.Update(cmd.Context(), year)
		if err != nil {
			return err
		}
		utils.Log.Infof("Update of %d done in %s: %d new competition(s)", result.Year, time.Since(start).Round(time.Second), len(result.Competitions))

		if asJSON {
			return printJSON(os.Stdout, result)
		}
		printUpdate(os.Stdout, result)
		return nil
	},
}

func printUpdate(w io.Writer, result *palmares.Result) {
	names, groups := groupByProvider(result.Competitions)
	for _, name := range names {
		fmt.Fprintf(w, "%s:\n", name)
		for _, c := range groups[name] {
			fmt.Fprintf(w, "  %s  %s  (%d contests)\n", c.Date.Format(dayLayout), c.Place, len(c.Contests))
		}
	}
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().IntP("year", "y", time.Now().Year(), "Season (FFDS) or calendar year (WDSF) to update")
	updateCmd.Flags().Bool("json", false, "Print the new competitions as JSON")
}
