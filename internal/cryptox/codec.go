// Package cryptox implements the field-level encryption codec used for
// remote documents, plus key derivation helpers.
//
// The codec takes explicit key material: callers derive the key once from the
// current identity and pass it to every call, so encryption and decryption
// have no hidden dependency on auth state. Ciphertext produced under one
// identity's key cannot be decrypted under another's; that is an accepted
// property of the scheme.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidPadding    = errors.New("invalid padding")
)

// DeriveKey produces the 256-bit field key for a signed-in identity:
// SHA-256 over "uid:email:appSalt".
func DeriveKey(uid, email, appSalt string) []byte {
	sum := sha256.Sum256([]byte(uid + ":" + email + ":" + appSalt))
	return sum[:]
}

// DeriveGuestKey is the fallback derivation used when no identity is
// resolvable: SHA-256 over the app salt alone.
func DeriveGuestKey(appSalt string) []byte {
	sum := sha256.Sum256([]byte(appSalt))
	return sum[:]
}

// StretchStoreKey turns the build-time store secret into the 256-bit key the
// local store seals values with. argon2id with the same cost parameters the
// rest of the project uses for key stretching.
func StretchStoreKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// EncryptField encrypts a single string field with AES-256-CBC and PKCS#7
// padding under a fresh random 128-bit IV. The wire format is
// "<ivHex>:<ciphertextBase64>". Empty input is returned unchanged.
func EncryptField(plain string, key []byte) (string, error) {
	if plain == "" {
		return plain, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plain), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return hex.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptField reverses EncryptField. Input without a colon separator is
// treated as legacy ciphertext written before the IV-prefixed format existed
// and is decrypted with an all-zero IV. Empty input is returned unchanged.
//
// A wrong key surfaces either as an error or as garbage output; callers must
// guard per field and keep the ciphertext on failure instead of aborting the
// surrounding record.
func DecryptField(encoded string, key []byte) (string, error) {
	if encoded == "" {
		return encoded, nil
	}

	ivHex, ctBase64, found := strings.Cut(encoded, ":")
	iv := make([]byte, aes.BlockSize)
	if found {
		decoded, err := hex.DecodeString(ivHex)
		if err != nil || len(decoded) != aes.BlockSize {
			return "", fmt.Errorf("%w: bad iv prefix", ErrInvalidCiphertext)
		}
		iv = decoded
	} else {
		// Legacy unprefixed format: whole input is the ciphertext,
		// implicit zero IV.
		ctBase64 = encoded
	}

	ct, err := base64.StdEncoding.DecodeString(ctBase64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(ct))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
