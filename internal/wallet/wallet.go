// Package wallet allocates wallet addresses for agent identities.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
)

// Keypair is a freshly generated wallet. The secret is handed to the
// caller exactly once and must not be persisted by this service.
type Keypair struct {
	Address string
	Secret  string
}

// Generator produces wallets for newly created agents. The production
// implementation derives addresses from Ed25519 keys; tests substitute
// a deterministic fake.
type Generator interface {
	Generate() (Keypair, error)
}

// Ed25519Generator derives the address from the public key: uppercase
// unpadded base32, the shape recipient systems expect for account
// addresses. The secret is the base64-encoded private key.
type Ed25519Generator struct{}

func NewGenerator() Ed25519Generator { return Ed25519Generator{} }

func (Ed25519Generator) Generate() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generate keypair: %w", err)
	}
	addr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(pub)
	return Keypair{
		Address: addr,
		Secret:  base64.StdEncoding.EncodeToString(priv),
	}, nil
}
