// Package sealer implements core.Cipher with NaCl secretbox and manages the
// key file it reads its symmetric key from.
package sealer

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/aretw0/mischief/pkg/core"
)

const (
	// KeySize is the length of a secretbox key.
	KeySize = 32
	// NonceSize is the length of the random nonce prepended to every ciphertext.
	NonceSize = 24
)

// Sealer encrypts and authenticates note bodies. Ciphertexts are laid out as
// nonce || secretbox.Seal(plaintext), so equal plaintexts never produce equal
// ciphertexts. A Sealer is safe for concurrent use.
type Sealer struct {
	key [KeySize]byte
}

// New returns a Sealer for key, which must be KeySize bytes.
func New(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("expected key length of %d bytes, got %d: %w", KeySize, len(key), core.ErrInvalidArgument)
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *Sealer) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Tampered, truncated or
// foreign ciphertexts fail with core.ErrDecryption.
func (s *Sealer) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("ciphertext too short (%d bytes): %w", len(ciphertext), core.ErrDecryption)
	}
	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("authentication failed: %w", core.ErrDecryption)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// ComponentType implements introspection.Component.
func (s *Sealer) ComponentType() string {
	return "cipher"
}

var _ core.Cipher = (*Sealer)(nil)
