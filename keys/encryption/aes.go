package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
)

// AESCrypter encrypts with AES-GCM, nonce prepended, base58 encoded.
// Unlike XORCrypter it is authenticated: a wrong key or corrupted
// ciphertext fails to decrypt.
type AESCrypter struct {
	key []byte
}

func NewAESCrypter(key []byte) *AESCrypter {
	return &AESCrypter{key}
}

func (s *AESCrypter) gcm() (cipher.AEAD, error) {
	c, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(c)
}

func (s *AESCrypter) Encrypt(secret []byte) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	return base58.Encode(gcm.Seal(nonce, nonce, secret, nil)), nil
}

func (s *AESCrypter) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base58.Decode(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext: %w", err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("message too short")
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]

	return gcm.Open(nil, nonce, sealed, nil)
}
