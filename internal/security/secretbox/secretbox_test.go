package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i + 1)
	}
	return k
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	ct, err := Encrypt(testKey(), "the_secret")
	require.NoError(t, err)
	require.True(t, IsEncrypted(ct))

	pt, err := Decrypt(testKey(), ct)
	require.NoError(t, err)
	require.Equal(t, "the_secret", pt)
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	ct, err := Encrypt(testKey(), "top secret")
	require.NoError(t, err)

	parts := strings.Split(strings.TrimPrefix(ct, Prefix), sep)
	require.Len(t, parts, 2)
	raw, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	raw[0] ^= 0xFF
	tampered := Prefix + parts[0] + sep + base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(testKey(), tampered)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, err := Encrypt(testKey(), "x")
	require.NoError(t, err)

	other := make([]byte, 32)
	_, err = Decrypt(other, ct)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_BadFormat(t *testing.T) {
	_, err := Decrypt(testKey(), "enc:not-a-box")
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseKey(t *testing.T) {
	k := testKey()

	got, err := ParseKey(base64.StdEncoding.EncodeToString(k))
	require.NoError(t, err)
	require.Equal(t, k, got)

	got, err = ParseKey("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
	require.NoError(t, err)
	require.Equal(t, k, got)

	_, err = ParseKey("short")
	require.ErrorIs(t, err, ErrInvalidKey)
}
