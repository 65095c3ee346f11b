package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sealed:"
	nonceSize    = 24
)

var errUnsealFailed = errors.New("unable to unseal stored token")

// sealer encrypts tokens at rest. A zero-value sealer passes tokens through.
type sealer struct {
	key     *[32]byte
	enabled bool
}

func newSealer(secret string) (*sealer, error) {
	if secret == "" {
		return &sealer{}, nil
	}

	var key [32]byte
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("rasync credential token"))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, err
	}
	return &sealer{key: &key, enabled: true}, nil
}

func (s *sealer) seal(token string) (string, error) {
	if !s.enabled {
		return token, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *sealer) open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		// Written before sealing was configured
		return stored, nil
	}
	if !s.enabled {
		return "", errUnsealFailed
	}

	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(box) < nonceSize {
		return "", errUnsealFailed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	token, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return "", errUnsealFailed
	}
	return string(token), nil
}
