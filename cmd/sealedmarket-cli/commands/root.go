package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sealedmarket-backend/lib/configutil"
	"sealedmarket-backend/lib/fetch"
)

var rootCmd = &cobra.Command{
	Use:   "sealedmarket-cli",
	Short: "sealedmarket-cli crawls the sealed product catalogue and records market snapshots.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Database         string `json:"database"`
	Source           string `json:"source"`
	SearchURL        string `json:"search_url"`
	UserAgent        string `json:"user_agent"`
	DelayMinMillis   int    `json:"delay_min_millis"`
	DelayMaxMillis   int    `json:"delay_max_millis"`
	Diagnostics      string `json:"diagnostics"`
	SellersTakeFirst bool   `json:"sellers_take_first"`
}

const defaultSearchURL = "https://www.tcgplayer.com/search/pokemon/product" +
	"?productLineName=pokemon&page={page}&view=grid&ProductTypeName=Sealed+Products"

// loadConfig reads config.json5 (with .local overrides); a missing file
// just means defaults.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	if cfg.Database == "" {
		cfg.Database = "sealed_market.db"
	}
	if cfg.Source == "" {
		cfg.Source = "TCGplayer"
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.DelayMinMillis == 0 {
		cfg.DelayMinMillis = 2000
	}
	if cfg.DelayMaxMillis == 0 {
		cfg.DelayMaxMillis = 5000
	}
	if cfg.Diagnostics == "" {
		cfg.Diagnostics = "diagnostics"
	}
	return cfg, nil
}

func (c Config) politeness() fetch.Politeness {
	return fetch.Politeness{
		Min: time.Duration(c.DelayMinMillis) * time.Millisecond,
		Max: time.Duration(c.DelayMaxMillis) * time.Millisecond,
	}
}
