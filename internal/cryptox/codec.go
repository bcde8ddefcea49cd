// Package cryptox implements the message codec used for chat content and the
// password verifiers used by the local authenticator.
//
// Chat content is sealed with AES-256-GCM under a key derived from the shared
// secret with PBKDF2-HMAC-SHA256. The wire form is base64(nonce || sealed),
// with a fresh 12-byte nonce per message.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySalt is fixed so both peers derive the same key from the secret.
	KeySalt       = "ttyLove-salt"
	KeyIterations = 100000
	KeySize       = 32
	NonceSize     = 12
)

// Sentinel strings shown in place of content that cannot be opened.
const (
	NotEncryptedSentinel  = "[Message is not encrypted or is corrupted]"
	DecryptFailedSentinel = "[Decryption failed: Incorrect key or corrupted data]"
	CouldNotDecrypt       = "[Could not decrypt message]"
)

var (
	// ErrFormat means the blob is not base64.
	ErrFormat = errors.New("message is not encrypted or is corrupted")
	// ErrDecrypt means the blob is too short or fails authentication.
	ErrDecrypt = errors.New("decryption failed")
)

// DeriveKey returns the 32-byte content key for secret.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(KeySalt), KeyIterations, KeySize, sha256.New)
}

// Encrypt seals plaintext under the key derived from secret.
func Encrypt(plaintext, secret string) (string, error) {
	return encryptWithKey(DeriveKey(secret), plaintext)
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(blob, secret string) (string, error) {
	return decryptWithKey(DeriveKey(secret), blob)
}

// DecryptOrSentinel is Decrypt for display: failures become sentinel text.
func DecryptOrSentinel(blob, secret string) string {
	return sentinelFor(Decrypt(blob, secret))
}

func sentinelFor(plaintext string, err error) string {
	switch {
	case err == nil:
		return plaintext
	case errors.Is(err, ErrFormat):
		return NotEncryptedSentinel
	default:
		return DecryptFailedSentinel
	}
}

func encryptWithKey(key []byte, plaintext string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func decryptWithKey(key []byte, blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrFormat
	}
	if len(raw) < NonceSize {
		return "", ErrDecrypt
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Codec caches the derived key for one secret. Deriving takes 100k PBKDF2
// rounds, so the message stream keeps a single Codec per session.
type Codec struct {
	once   sync.Once
	secret string
	key    []byte
}

// NewCodec binds a codec to secret. The key is derived on first use.
func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

func (c *Codec) derived() []byte {
	c.once.Do(func() { c.key = DeriveKey(c.secret) })
	return c.key
}

// Encrypt seals plaintext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	return encryptWithKey(c.derived(), plaintext)
}

// Decrypt opens blob.
func (c *Codec) Decrypt(blob string) (string, error) {
	return decryptWithKey(c.derived(), blob)
}

// DecryptOrSentinel opens blob or returns the matching sentinel text.
func (c *Codec) DecryptOrSentinel(blob string) string {
	return sentinelFor(c.Decrypt(blob))
}

// Wipe zeroes the cached key. The codec must not be used afterwards.
func (c *Codec) Wipe() {
	c.once.Do(func() {})
	wipe(c.key)
}
