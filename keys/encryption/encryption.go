// Package encryption provides at-rest encryption for custodial key material.
package encryption

const (
	KeyTypeXORBase58 = "xor-base58"
	KeyTypeAESGCM    = "aes-gcm"
)

// Crypter encrypts a raw secret key into a printable ciphertext and back.
type Crypter interface {
	Encrypt(secret []byte) (ciphertext string, err error)
	Decrypt(ciphertext string) (secret []byte, err error)
}
