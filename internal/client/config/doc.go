// Package config loads runtime configuration for the ttychat terminal.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the document store server
//	-i int      online status check interval (seconds)
//	-k string   server access key
//	-l string   log file
//	-f string   downloads directory for received files
//	-d string   local SQLite database
//	-p string   pairing token
//	-n int      negotiation timeout (seconds)
//	-w string   push endpoint URL to register
//	-S list     STUN server URLs, repeatable or comma separated
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "access_key": "accessKey",
//	  "negotiation_timeout": "60s",
//	  "stun_servers": ["stun:stun1.l.google.com:19302"],
//	  "real_verifier": "<hex>",
//	  "duress_verifier": "<hex>",
//	  "auth_salt": "<hex>"
//	}
package config
