// Command verifier prints the password verifier settings for the ttychat
// client config. Both passwords are read from the terminal without echo.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/ttychat/internal/client/auth"
	"github.com/dmitrijs2005/ttychat/internal/client/cli"
	"github.com/dmitrijs2005/ttychat/internal/common"
)

type verifierConfig struct {
	RealVerifier   string `json:"real_verifier"`
	DuressVerifier string `json:"duress_verifier,omitempty"`
	AuthSalt       string `json:"auth_salt"`
}

func main() {
	realPw, err := cli.GetPassword(os.Stderr, "Real password: ")
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	defer common.WipeByteArray(realPw)
	if len(realPw) == 0 {
		log.Fatal("real password must not be empty")
	}

	duressPw, err := cli.GetPassword(os.Stderr, "Duress password (empty to disable): ")
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	defer common.WipeByteArray(duressPw)
	if string(duressPw) == string(realPw) {
		log.Fatal("duress password must differ from the real one")
	}

	r, d, s := auth.MakeVerifiers(string(realPw), string(duressPw))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(verifierConfig{RealVerifier: r, DuressVerifier: d, AuthSalt: s}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
