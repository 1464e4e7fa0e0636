// Package sshkey generates RSA key pairs for SSH authentication and encodes
// the public half in the OpenSSH authorized-key wire format (RFC 4253 §6.6).
package sshkey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/ssh"
)

// DefaultBits is the modulus size used by Generate.
const DefaultBits = 2048

// KeyAlgorithm is the OpenSSH name of the key type.
const KeyAlgorithm = "ssh-rsa"

// ErrKeyGeneration indicates the platform could not produce an RSA key.
// It is not retried.
var ErrKeyGeneration = errors.New("rsa key generation failed")

// KeyPair is a freshly generated key with its textual encodings.
type KeyPair struct {
	// PrivateKey is the PKCS#1 key as an "RSA PRIVATE KEY" PEM block.
	PrivateKey string
	// PublicKey is the authorized-key line: "ssh-rsa <base64> <comment>".
	PublicKey string
	// Key is the parsed private key.
	Key *rsa.PrivateKey
}

// Fingerprint returns the SHA256 fingerprint of the public key as printed
// by ssh-keygen -l.
func (k *KeyPair) Fingerprint() (string, error) {
	pub, err := ssh.NewPublicKey(&k.Key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("converting public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}

// Generator creates RSA key pairs of a fixed size.
type Generator struct {
	bits   int
	random io.Reader
}

// NewGenerator creates a Generator. bits <= 0 selects DefaultBits.
func NewGenerator(bits int) *Generator {
	if bits <= 0 {
		bits = DefaultBits
	}
	return &Generator{bits: bits, random: rand.Reader}
}

// Bits returns the modulus size.
func (g *Generator) Bits() int {
	return g.bits
}

// Generate creates a new key pair. comment is appended to the public line.
func (g *Generator) Generate(comment string) (*KeyPair, error) {
	key, err := rsa.GenerateKey(g.random, g.bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}

	block := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	public, err := AuthorizedKey(&key.PublicKey, comment)
	if err != nil {
		return nil, err
	}

	return &KeyPair{PrivateKey: string(block), PublicKey: public, Key: key}, nil
}

// Generate creates a DefaultBits key pair.
func Generate(comment string) (*KeyPair, error) {
	return NewGenerator(DefaultBits).Generate(comment)
}

// AuthorizedKey renders pub as an authorized-key line.
func AuthorizedKey(pub *rsa.PublicKey, comment string) (string, error) {
	blob, err := WireFormat(pub)
	if err != nil {
		return "", err
	}
	line := KeyAlgorithm + " " + base64.StdEncoding.EncodeToString(blob)
	if comment != "" {
		line += " " + comment
	}
	return line, nil
}

// WireFormat encodes pub as string "ssh-rsa", mpint e, mpint n, each
// prefixed with its big-endian uint32 length.
func WireFormat(pub *rsa.PublicKey) ([]byte, error) {
	if pub == nil || pub.N == nil {
		return nil, errors.New("encoding public key: missing modulus")
	}

	var b cryptobyte.Builder
	b.AddUint32LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes([]byte(KeyAlgorithm))
	})
	addMPInt(&b, big.NewInt(int64(pub.E)))
	addMPInt(&b, pub.N)

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	return out, nil
}

func addMPInt(b *cryptobyte.Builder, n *big.Int) {
	b.AddUint32LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(MPIntBytes(n))
	})
}

// MPIntBytes returns the two's-complement big-endian body of an SSH mpint.
// Zero is empty; a positive value whose top bit is set gains a leading
// zero byte; a negative value is sign-extended with 0xff when needed.
func MPIntBytes(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return []byte{}
	case 1:
		raw := n.Bytes()
		if raw[0]&0x80 != 0 {
			return append([]byte{0x00}, raw...)
		}
		return raw
	}

	width := len(new(big.Int).Neg(n).Bytes())
	modulus := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	raw := new(big.Int).Add(modulus, n).FillBytes(make([]byte, width))
	if raw[0]&0x80 == 0 {
		return append([]byte{0xff}, raw...)
	}
	return raw
}
