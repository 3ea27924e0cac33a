// Package config reads palmares settings from viper and builds the
// configured providers.
package config

import (
	"fmt"
	"strings"

	"github.com/palmares-dance/palmares/pkg/palmares"
	"github.com/palmares-dance/palmares/pkg/providers"
	_ "github.com/palmares-dance/palmares/pkg/providers/ffds"
	_ "github.com/palmares-dance/palmares/pkg/providers/wdsf"
	"github.com/spf13/viper"
)

const (
	KeyStoragePath = "storage.path"
	KeyPoolSize    = "update.poolsize"
	KeyProviders   = "providers"
)

// DefaultProviders targets the live federation sites.
var DefaultProviders = []map[string]interface{}{
	{
		"name":       "FFDS",
		"url":        "http://www.dansesportive.fr",
		"list":       "compet-resultats.php",
		"details":    "compet-resultats.php?NumManif=%s",
		"clubs":      "compet-situation.php",
		"couples":    "compet-situation.php?club_id=%s&Recherche_Club=",
		"search":     "compet-situation.php?couple_name=%s&Recherche_Nom=",
		"dateFormat": "02/01/2006",
	},
	{
		"name":       "WDSF",
		"url":        "https://www.worlddancesport.org",
		"list":       "Calendar/Competition/Results?format=csv&downloadFromDate=01/01/%[1]d&downloadToDate=31/12/%[1]d&kindFilter=Competition",
		"dateFormat": "2006/01/02",
	},
}

// Config is the decoded configuration.
type Config struct {
	StoragePath string
	PoolSize    int
	// Providers keeps raw option maps; they are decoded by providers.New.
	Providers []interface{}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStoragePath, "palmares.sqlite")
	v.SetDefault(KeyPoolSize, palmares.DefaultPoolSize)
	defaults := make([]interface{}, len(DefaultProviders))
	for i, p := range DefaultProviders {
		defaults[i] = p
	}
	v.SetDefault(KeyProviders, defaults)
}

// Load reads the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		StoragePath: v.GetString(KeyStoragePath),
		PoolSize:    v.GetInt(KeyPoolSize),
	}
	if cfg.PoolSize <= 0 {
		return cfg, &providers.ValidationError{Field: KeyPoolSize, Reason: "must be positive"}
	}
	raw := v.Get(KeyProviders)
	list, ok := raw.([]interface{})
	if !ok {
		return cfg, &providers.ValidationError{Field: KeyProviders, Reason: fmt.Sprintf("must be a list, got %T", raw)}
	}
	cfg.Providers = list
	return cfg, nil
}

// BuildProviders constructs every configured provider. The first invalid
// one fails the whole build.
func (c Config) BuildProviders(log providers.Logger) ([]providers.Provider, error) {
	built := make([]providers.Provider, 0, len(c.Providers))
	for i, raw := range c.Providers {
		p, err := providers.New(raw, log)
		if err != nil {
			return nil, fmt.Errorf("provider #%d: %w", i+1, err)
		}
		built = append(built, p)
	}
	return built, nil
}

// Provider returns the configured provider named name, case-insensitively.
func (c Config) Provider(name string, log providers.Logger) (providers.Provider, error) {
	all, err := c.BuildProviders(log)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if strings.EqualFold(p.Name(), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, &providers.NotFoundError{Kind: "provider", Name: name}
}
