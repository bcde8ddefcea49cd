package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k string   client access key
//	-t int      access token validity, minutes
//	-n int      push delivery timeout, seconds
//
// The function first filters os.Args to the flags it recognizes using
// flagx.FilterArgs, so -c/-config and test runner flags pass through.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-t", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AccessKey, "k", config.AccessKey, "client access key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	notifyTimeout := fs.Int("n", int(config.NotifyTimeout.Seconds()), "push delivery timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.NotifyTimeout = time.Duration(*notifyTimeout) * time.Second
}
