package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ttychat/internal/flagx"
	"github.com/dmitrijs2005/ttychat/internal/timex"
)

// JsonConfig is the JSON form of Config.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	AccessKey           string         `json:"access_key"`
	LogFile             string         `json:"log_file"`
	DownloadsDir        string         `json:"downloads_dir"`
	DatabasePath        string         `json:"database_path"`
	PairingToken        string         `json:"pairing_token"`
	NegotiationTimeout  timex.Duration `json:"negotiation_timeout"`
	PushEndpoint        string         `json:"push_endpoint"`
	STUNServers         []string       `json:"stun_servers"`
	RealVerifier        string         `json:"real_verifier"`
	DuressVerifier      string         `json:"duress_verifier"`
	AuthSalt            string         `json:"auth_salt"`
}

// parseJson overlays cfg with the file named by -c or -config. Fields
// absent from the file keep their current value. Read or decode failures
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.AccessKey, jc.AccessKey)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.DownloadsDir, jc.DownloadsDir)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.PairingToken, jc.PairingToken)
	setString(&cfg.PushEndpoint, jc.PushEndpoint)
	setString(&cfg.RealVerifier, jc.RealVerifier)
	setString(&cfg.DuressVerifier, jc.DuressVerifier)
	setString(&cfg.AuthSalt, jc.AuthSalt)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.NegotiationTimeout.Duration > 0 {
		cfg.NegotiationTimeout = jc.NegotiationTimeout.Duration
	}
	if len(jc.STUNServers) > 0 {
		cfg.STUNServers = jc.STUNServers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
