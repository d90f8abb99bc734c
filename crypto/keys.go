// Package crypto loads and stores the ed25519 keypairs operators sign
// auction house transactions with.
package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

var ErrEmptyKeyPath = errors.New("crypto: empty key path")

// GenerateKeypair returns a fresh random keypair.
func GenerateKeypair() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// SaveKeypair writes key in the keygen file format: a JSON array holding the
// 64 secret key bytes. The file is created 0600 and its directory 0700.
func SaveKeypair(path string, key solana.PrivateKey) error {
	if path == "" {
		return ErrEmptyKeyPath
	}
	if len(key) != 64 {
		return fmt.Errorf("crypto: keypair must be 64 bytes, got %d", len(key))
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadKeypair reads a keygen file written by SaveKeypair or the Solana CLI.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: load keypair %s: %w", path, err)
	}
	return key, nil
}

// LoadSigner reads either a plain keygen file or an encrypted keystore,
// asking passphrase for the secret only in the latter case.
func LoadSigner(path string, passphrase func() (string, error)) (solana.PrivateKey, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return LoadKeypair(path)
	}
	if passphrase == nil {
		return nil, fmt.Errorf("crypto: %s is encrypted and no passphrase source was given", path)
	}
	pass, err := passphrase()
	if err != nil {
		return nil, err
	}
	return LoadFromKeystore(path, pass)
}
