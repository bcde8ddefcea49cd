package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/flagx"
)

// parseFlags overlays cfg with the short flags listed in the package doc.
// os.Args is filtered with flagx.FilterArgs first so -c/-config and test
// runner flags pass through. A value given with -S replaces the STUN list.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-k", "-l", "-f", "-d", "-p", "-n", "-w", "-S"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessKey, "k", cfg.AccessKey, "server access key")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	fs.StringVar(&cfg.DownloadsDir, "f", cfg.DownloadsDir, "downloads directory")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.PairingToken, "p", cfg.PairingToken, "pairing token")
	fs.StringVar(&cfg.PushEndpoint, "w", cfg.PushEndpoint, "push endpoint URL")

	var stun flagx.StringList
	fs.Var(&stun, "S", "STUN server URL (repeatable)")

	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	negotiationTimeout := fs.Int("n", int(cfg.NegotiationTimeout.Seconds()), "negotiation timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.NegotiationTimeout = time.Duration(*negotiationTimeout) * time.Second
	if len(stun) > 0 {
		cfg.STUNServers = stun
	}
}
