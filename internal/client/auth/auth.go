// Package auth is the local password challenge behind "sudo connect".
//
// Exactly two passwords are recognised, each stored only as an Argon2id
// verifier: the real one opens the encrypted chat, the duress one opens the
// decoy shell. Sessions live in memory for the lifetime of the process.
package auth

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/cryptox"
)

var ErrIncorrectPassword = errors.New("incorrect password")

type Mode int

const (
	ModeNone Mode = iota
	ModeReal
	ModeDecoy
)

const (
	RealUser  = "root"
	DecoyUser = "admin"
)

// Session is the result of a successful challenge. A decoy session has no
// ID and no Secret.
type Session struct {
	ID       string
	IsReal   bool
	Username string
	Secret   string
}

type Authenticator struct {
	salt   []byte
	real   []byte
	duress []byte
}

// NewAuthenticator decodes hex verifiers and salt as written by
// cmd/verifier. An empty duress verifier disables decoy mode.
func NewAuthenticator(realVerifier, duressVerifier, salt string) (*Authenticator, error) {
	s, err := hex.DecodeString(salt)
	if err != nil || len(s) == 0 {
		return nil, fmt.Errorf("auth salt: invalid hex")
	}
	r, err := hex.DecodeString(realVerifier)
	if err != nil || len(r) == 0 {
		return nil, fmt.Errorf("real verifier: invalid hex")
	}
	d, err := hex.DecodeString(duressVerifier)
	if err != nil {
		return nil, fmt.Errorf("duress verifier: invalid hex")
	}
	return &Authenticator{salt: s, real: r, duress: d}, nil
}

// Authenticate checks password against both verifiers. Both comparisons
// always run.
func (a *Authenticator) Authenticate(password string) (Session, Mode, error) {
	candidate := cryptox.NewVerifier([]byte(password), a.salt)
	defer common.WipeByteArray(candidate)

	isReal := cryptox.VerifierEqual(a.real, candidate)
	isDuress := cryptox.VerifierEqual(a.duress, candidate)

	switch {
	case isReal:
		id, err := common.MakeSessionID()
		if err != nil {
			return Session{}, ModeNone, err
		}
		return Session{ID: id, IsReal: true, Username: RealUser, Secret: password}, ModeReal, nil
	case isDuress:
		return Session{Username: DecoyUser}, ModeDecoy, nil
	}
	return Session{}, ModeNone, ErrIncorrectPassword
}

// MakeVerifiers produces the hex config values for a real and a duress
// password under a fresh random salt.
func MakeVerifiers(realPassword, duressPassword string) (realHex, duressHex, saltHex string) {
	salt := common.GenerateRandByteArray(16)
	realHex = hex.EncodeToString(cryptox.NewVerifier([]byte(realPassword), salt))
	if duressPassword != "" {
		duressHex = hex.EncodeToString(cryptox.NewVerifier([]byte(duressPassword), salt))
	}
	return realHex, duressHex, hex.EncodeToString(salt)
}
