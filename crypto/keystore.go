package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/gagliardetto/solana-go"
)

var (
	scryptN = keystore.StandardScryptN
	scryptP = keystore.StandardScryptP
)

const keystoreVersion = 1

var ErrKeystoreMismatch = errors.New("crypto: keystore public key does not match decrypted secret")

type keystoreFile struct {
	Version   int                 `json:"version"`
	PublicKey string              `json:"publicKey"`
	Crypto    keystore.CryptoJSON `json:"crypto"`
}

// SaveToKeystore encrypts key under passphrase with scrypt and AES-CTR and
// writes it to path. The parent directory is created 0700 when missing.
func SaveToKeystore(path string, key solana.PrivateKey, passphrase string) error {
	if path == "" {
		return ErrEmptyKeyPath
	}
	if len(key) != 64 {
		return fmt.Errorf("crypto: keypair must be 64 bytes, got %d", len(key))
	}
	sealed, err := keystore.EncryptDataV3(key, []byte(passphrase), scryptN, scryptP)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(keystoreFile{
		Version:   keystoreVersion,
		PublicKey: key.PublicKey().String(),
		Crypto:    sealed,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFromKeystore decrypts the keystore at path.
func LoadFromKeystore(path, passphrase string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("crypto: parse keystore %s: %w", path, err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", file.Version)
	}
	secret, err := keystore.DecryptDataV3(file.Crypto, passphrase)
	if err != nil {
		return nil, err
	}
	key := solana.PrivateKey(secret)
	if len(key) != 64 || key.PublicKey().String() != file.PublicKey {
		return nil, ErrKeystoreMismatch
	}
	return key, nil
}
