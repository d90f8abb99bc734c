package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/require"
)

func useLightScrypt(t *testing.T) {
	n, p := scryptN, scryptP
	scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	t.Cleanup(func() { scryptN, scryptP = n, p })
}

func TestKeypairFileRoundTrip(t *testing.T) {
	key, err := GenerateKeypair()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "operator.json")

	require.NoError(t, SaveKeypair(path, key))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	require.Equal(t, key.PublicKey(), loaded.PublicKey())

	signer, err := LoadSigner(path, nil)
	require.NoError(t, err)
	require.Equal(t, key, signer)
}

func TestKeystoreRoundTrip(t *testing.T) {
	useLightScrypt(t)
	key, err := GenerateKeypair()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "operator.keystore")

	require.NoError(t, SaveToKeystore(path, key, "correct horse"))
	loaded, err := LoadFromKeystore(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, key, loaded)

	_, err = LoadFromKeystore(path, "wrong")
	require.ErrorIs(t, err, keystore.ErrDecrypt)

	asked := false
	signer, err := LoadSigner(path, func() (string, error) {
		asked = true
		return "correct horse", nil
	})
	require.NoError(t, err)
	require.True(t, asked)
	require.Equal(t, key.PublicKey(), signer.PublicKey())

	_, err = LoadSigner(path, nil)
	require.Error(t, err)
}

func TestEmptyPaths(t *testing.T) {
	_, err := LoadKeypair("")
	require.True(t, errors.Is(err, ErrEmptyKeyPath))
	require.ErrorIs(t, SaveToKeystore("", nil, ""), ErrEmptyKeyPath)
}
