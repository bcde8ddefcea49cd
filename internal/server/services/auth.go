package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/server/auth"
	"github.com/dmitrijs2005/ttychat/internal/server/config"
)

// AuthService exchanges the shared access key for a session-scoped token.
type AuthService struct {
	accessKey                   []byte
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		accessKey:                   []byte(cfg.AccessKey),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *AuthService) checkAccessKey(candidate string) bool {
	if len(s.accessKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(s.accessKey, []byte(candidate)) == 1
}

// Authenticate returns an access token and the session id it is bound to.
// An empty sessionID gets a fresh one; a returning client passes its own
// to keep the same identity across token renewals.
func (s *AuthService) Authenticate(ctx context.Context, accessKey, sessionID string) (string, string, error) {
	if !s.checkAccessKey(accessKey) {
		return "", "", common.ErrorUnauthorized
	}

	if sessionID == "" {
		id, err := common.MakeSessionID()
		if err != nil {
			return "", "", common.ErrorInternal
		}
		sessionID = id
	}

	token, err := auth.GenerateToken(sessionID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", "", common.ErrorInternal
	}
	return token, sessionID, nil
}
