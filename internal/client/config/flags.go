package config

import (
	"flag"
	"os"
	"time"

	"github.com/kantorei/chorsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-d string   sqlite file of the local replica
//	-choir string  default choir id
//	-g string   listen address of the local offline gateway
//	-p int      prefetch start delay in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-choir", "-g", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "base URL of the backend server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "sqlite file of the local replica")
	fs.StringVar(&cfg.ChoirID, "choir", cfg.ChoirID, "default choir id")
	fs.StringVar(&cfg.GatewayAddr, "g", cfg.GatewayAddr, "listen address of the local offline gateway")
	prefetchDelay := fs.Int("p", int(cfg.PrefetchDelay.Seconds()), "prefetch start delay (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PrefetchDelay = time.Duration(*prefetchDelay) * time.Second
}
