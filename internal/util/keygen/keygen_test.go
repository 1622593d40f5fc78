package keygen

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPairFormats(t *testing.T) {
	t.Parallel()

	kp, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	block, rest := pem.Decode(kp.PrivateKey)
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)

	pub, _, _, _, err := ssh.ParseAuthorizedKey(kp.PublicKey)
	require.NoError(t, err)

	// public key must correspond to the private key
	expected, err := ssh.NewPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, expected.Marshal(), pub.Marshal())
}

func TestGenerateRSAKeyPairInvalidBits(t *testing.T) {
	t.Parallel()

	_, err := GenerateRSAKeyPair(0)
	require.Error(t, err)
}

func TestGenerateRSAKeyPairUniqueness(t *testing.T) {
	t.Parallel()

	a, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	b, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
}

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	kp, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "deploy_key")
	require.NoError(t, kp.WriteFiles(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	pub, err := os.ReadFile(path + ".pub")
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)
}
