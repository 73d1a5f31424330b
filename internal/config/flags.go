package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the local database file (default from Config)
//	-f string   path to the Firebase credentials JSON (default from Config)
//	-s string   application salt for field key derivation
//	-k string   secret protecting the local store at rest
//	-p string   network probe URL
//	-i int      online check interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-f", "-s", "-k", "-p", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	fs.StringVar(&cfg.CredentialsFile, "f", cfg.CredentialsFile, "path to the Firebase credentials JSON")
	fs.StringVar(&cfg.AppSalt, "s", cfg.AppSalt, "application salt for field key derivation")
	fs.StringVar(&cfg.StoreKey, "k", cfg.StoreKey, "secret protecting the local store at rest")
	fs.StringVar(&cfg.ProbeURL, "p", cfg.ProbeURL, "network probe URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
