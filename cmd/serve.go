package cmd

import (
	"context"

	"github.com/palmares-dance/palmares/internal/server"
	"github.com/palmares-dance/palmares/internal/utils"
	"github.com/palmares-dance/palmares/pkg/palmares"
	"github.com/palmares-dance/palmares/pkg/storage"
	"github.com/spf13/cobra"
)

// lockedUpdater holds the database lock while update requests are in
// flight, so that a concurrent `palmares update` waits for the server and
// vice versa.
type lockedUpdater struct {
	lock *utils.DBLock
	o    *palmares.Orchestrator
}

func (u *lockedUpdater) Update(ctx context.Context, year int) (*palmares.Result, error) {
	if err := u.lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := u.lock.Unlock(); err != nil {
			utils.Log.Warnf("%v", err)
		}
	}()
	return u.o.Update(ctx, year)
}

// serveCmd implements: palmares serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results and trigger updates over a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("pass")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		lock, err := utils.NewDBLock(cfg.StoragePath)
		if err != nil {
			return err
		}

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

		return server.New(db, &lockedUpdater{lock: lock, o: o}, user, pass, utils.Log).Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().String("user", "", "Basic auth username (no auth when empty)")
	serveCmd.Flags().String("pass", "", "Basic auth password")
}
