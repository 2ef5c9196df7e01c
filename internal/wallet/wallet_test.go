package wallet

import (
	"crypto/ed25519"
	"encoding/base32"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AddressShape(t *testing.T) {
	kp, err := NewGenerator().Generate()
	require.NoError(t, err)

	pub, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(kp.Address)
	require.NoError(t, err)
	assert.Len(t, pub, ed25519.PublicKeySize)
}

func TestGenerate_SecretMatchesAddress(t *testing.T) {
	kp, err := NewGenerator().Generate()
	require.NoError(t, err)

	priv, err := base64.StdEncoding.DecodeString(kp.Secret)
	require.NoError(t, err)
	require.Len(t, priv, ed25519.PrivateKeySize)

	pub := ed25519.PrivateKey(priv).Public().(ed25519.PublicKey)
	addr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(pub)
	assert.Equal(t, addr, kp.Address)
}

func TestGenerate_Unique(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		kp, err := g.Generate()
		require.NoError(t, err)
		assert.False(t, seen[kp.Address], "duplicate address")
		seen[kp.Address] = true
	}
}
