// Package common contains shared constants and sentinel errors used across
// ttychat components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SessionIDSize is the number of random bytes behind a session id.
const SessionIDSize = 16
