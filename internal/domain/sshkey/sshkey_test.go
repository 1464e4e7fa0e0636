package sshkey

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

var sshRSAPrefix = []byte{0x00, 0x00, 0x00, 0x07, 's', 's', 'h', '-', 'r', 's', 'a'}

func TestGenerate_PublicKeyFormat(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(1024)
	for i := 0; i < 100; i++ {
		pair, err := gen.Generate("dev@box")
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(pair.PublicKey, "ssh-rsa "), "line %d: %q", i, pair.PublicKey)

		parts := strings.Split(pair.PublicKey, " ")
		require.Len(t, parts, 3)
		assert.Equal(t, "dev@box", parts[2])

		blob, err := base64.StdEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(blob, sshRSAPrefix))
	}
}

func TestGenerate_MatchesOpenSSHEncoding(t *testing.T) {
	t.Parallel()

	pair, err := NewGenerator(2048).Generate("alice-bitbucket.org")
	require.NoError(t, err)

	pub, comment, _, rest, err := ssh.ParseAuthorizedKey([]byte(pair.PublicKey))
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "alice-bitbucket.org", comment)
	assert.Equal(t, KeyAlgorithm, pub.Type())

	expected, err := ssh.NewPublicKey(&pair.Key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, expected.Marshal(), pub.Marshal())

	fp, err := pair.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(expected), fp)
}

func TestGenerate_PrivateKeyPEM(t *testing.T) {
	t.Parallel()

	pair, err := NewGenerator(1024).Generate("")
	require.NoError(t, err)

	block, rest := pem.Decode([]byte(pair.PrivateKey))
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)

	parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(pair.Key))

	assert.Equal(t, 2, strings.Count(pair.PublicKey, " ")+1, "no comment means no trailing field")
}

func TestGenerate_FreshKeys(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(1024)
	a, err := gen.Generate("x")
	require.NoError(t, err)
	b, err := gen.Generate("x")
	require.NoError(t, err)
	assert.NotEqual(t, a.PublicKey, b.PublicKey)
}

func TestGenerate_Failure(t *testing.T) {
	t.Parallel()

	// Keys below 1024 bits are refused by crypto/rsa.
	_, err := NewGenerator(512).Generate("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestNewGenerator_Defaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultBits, NewGenerator(0).Bits())
	assert.Equal(t, 4096, NewGenerator(4096).Bits())
}

func TestMPIntBytes(t *testing.T) {
	t.Parallel()

	// Examples from RFC 4251 §5.
	tests := []struct {
		hexValue string
		want     string
	}{
		{"0", "00000000"},
		{"9a378f9b2e332a7", "0000000809a378f9b2e332a7"},
		{"80", "000000020080"},
		{"-1234", "00000002edcc"},
		{"-deadbeef", "00000005ff21524111"},
		{"7f", "000000017f"},
		{"-80", "0000000180"},
		{"-100", "00000002ff00"},
	}

	for _, tt := range tests {
		t.Run(tt.hexValue, func(t *testing.T) {
			t.Parallel()

			n, ok := new(big.Int).SetString(tt.hexValue, 16)
			require.True(t, ok)

			body := MPIntBytes(n)
			encoded := make([]byte, 4, 4+len(body))
			binary.BigEndian.PutUint32(encoded, uint32(len(body)))
			encoded = append(encoded, body...)

			assert.Equal(t, tt.want, hex.EncodeToString(encoded))
		})
	}
}

func TestWireFormat_LeadingZeroOnModulus(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	blob, err := WireFormat(&key.PublicKey)
	require.NoError(t, err)

	rest := blob[len(sshRSAPrefix):]
	eLen := binary.BigEndian.Uint32(rest)
	rest = rest[4+eLen:]
	nLen := binary.BigEndian.Uint32(rest)
	nBody := rest[4 : 4+nLen]

	// A generated modulus always has its top bit set.
	assert.Equal(t, byte(0x00), nBody[0])
	assert.Equal(t, uint32(1024/8+1), nLen)
	assert.Equal(t, key.N, new(big.Int).SetBytes(nBody))

	_, err = WireFormat(nil)
	assert.Error(t, err)
}
