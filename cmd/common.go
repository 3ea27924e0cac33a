package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/config"
	"github.com/palmares-dance/palmares/pkg/storage"
	"github.com/spf13/viper"
)

const dayLayout = "2006-01-02"

func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// openExistingDB opens the database for reading, failing when it was never created.
func openExistingDB(path string) (*storage.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s (run `palmares update` first)", path)
	}
	return storage.Open(path)
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(dayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// groupByProvider splits competitions per provider, keeping their order.
// Provider names are sorted.
func groupByProvider(competitions []*competition.Competition) ([]string, map[string][]*competition.Competition) {
	groups := map[string][]*competition.Competition{}
	var names []string
	for _, c := range competitions {
		if _, ok := groups[c.Provider]; !ok {
			names = append(names, c.Provider)
		}
		groups[c.Provider] = append(groups[c.Provider], c)
	}
	sort.Strings(names)
	return names, groups
}
