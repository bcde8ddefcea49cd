package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ttychat/internal/flagx"
	"github.com/dmitrijs2005/ttychat/internal/timex"
)

// JsonConfig is the JSON form of Config. Durations use timex.Duration, so
// both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessKey                   string         `json:"access_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	NotifyTimeout               timex.Duration `json:"notify_timeout"`
}

// parseJson overlays config with the file named by -c or -config. Without
// either flag nothing is loaded. Read or decode failures panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessKey = c.AccessKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.NotifyTimeout = c.NotifyTimeout.Duration
}
