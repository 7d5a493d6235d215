package encryption

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// XORCrypter implements the legacy at-rest format of the key pool: a
// byte-wise XOR against the key repeated cyclically, base58 encoded.
//
// The operation is its own inverse and carries no integrity tag.
// Decrypting with a wrong key yields a same-length byte string and no
// error; callers must validate the result structurally before trusting
// it (see keys.Service).
type XORCrypter struct {
	key []byte
}

func NewXORCrypter(key []byte) *XORCrypter {
	return &XORCrypter{key}
}

func (s *XORCrypter) apply(in []byte) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, fmt.Errorf("encryption key is empty")
	}
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ s.key[i%len(s.key)]
	}
	return out, nil
}

func (s *XORCrypter) Encrypt(secret []byte) (string, error) {
	out, err := s.apply(secret)
	if err != nil {
		return "", err
	}
	return base58.Encode(out), nil
}

// Decrypt fails only on malformed base58 input, never on a wrong key.
func (s *XORCrypter) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base58.Decode(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext: %w", err)
	}
	return s.apply(raw)
}
