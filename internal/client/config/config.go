package config

import "time"

// Config holds runtime settings for the ttychat terminal.
//
// Verifiers and the salt are hex strings produced by cmd/verifier. An
// empty PairingToken means the room is derived from the password itself.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	AccessKey           string
	LogFile             string
	DownloadsDir        string
	DatabasePath        string
	PairingToken        string
	NegotiationTimeout  time.Duration
	PushEndpoint        string
	STUNServers         []string
	RealVerifier        string
	DuressVerifier      string
	AuthSalt            string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.AccessKey = "accessKey"
	c.LogFile = "ttychat.log"
	c.DownloadsDir = "downloads"
	c.DatabasePath = "ttychat.db"
	c.NegotiationTimeout = 60 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
