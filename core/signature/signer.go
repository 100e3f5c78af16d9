// Package signature provides signature creators for ASiC-E containers and
// the signers they delegate the cryptography to.
package signature

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Signature algorithm names.
const (
	AlgorithmEd25519    = "ed25519"
	AlgorithmDilithium3 = "dilithium3"
)

var (
	// ErrInvalidKey is returned when a key has the wrong size or encoding.
	ErrInvalidKey = errors.New("signature: invalid key")

	// ErrUnsupportedAlgorithm is returned for an unknown signature algorithm.
	ErrUnsupportedAlgorithm = errors.New("signature: unsupported algorithm")

	// ErrSignatureInvalid is returned when a signature does not verify.
	ErrSignatureInvalid = errors.New("signature: signature invalid")
)

// Signer produces detached signatures over manifest bytes.
type Signer interface {
	// Algorithm names the signature scheme, e.g. "ed25519".
	Algorithm() string

	// MimeType is recorded for the signature entry.
	MimeType() string

	// PublicKey returns the encoded verification key.
	PublicKey() []byte

	// Sign returns the signature over payload.
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}

// Ed25519Signer signs with an Ed25519 private key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// NewEd25519Signer returns a signer for key.
func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes", ErrInvalidKey, ed25519.PrivateKeySize)
	}
	return &Ed25519Signer{key: key}, nil
}

// Algorithm implements Signer.
func (s *Ed25519Signer) Algorithm() string { return AlgorithmEd25519 }

// MimeType implements Signer.
func (s *Ed25519Signer) MimeType() string { return "application/x-ed25519-signature" }

// PublicKey implements Signer.
func (s *Ed25519Signer) PublicKey() []byte {
	pub, _ := s.key.Public().(ed25519.PublicKey)
	return pub
}

// Sign implements Signer.
func (s *Ed25519Signer) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(s.key, payload), nil
}

// Dilithium3Signer signs with a post-quantum Dilithium mode 3 private key.
type Dilithium3Signer struct {
	key *mode3.PrivateKey
	pub []byte
}

// NewDilithium3Signer returns a signer for key.
func NewDilithium3Signer(key *mode3.PrivateKey) (*Dilithium3Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil dilithium3 private key", ErrInvalidKey)
	}
	pk, ok := key.Public().(*mode3.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: dilithium3 public key", ErrInvalidKey)
	}
	pub, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &Dilithium3Signer{key: key, pub: pub}, nil
}

// Algorithm implements Signer.
func (s *Dilithium3Signer) Algorithm() string { return AlgorithmDilithium3 }

// MimeType implements Signer.
func (s *Dilithium3Signer) MimeType() string { return "application/x-dilithium3-signature" }

// PublicKey implements Signer.
func (s *Dilithium3Signer) PublicKey() []byte { return s.pub }

// Sign implements Signer.
func (s *Dilithium3Signer) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.key, payload, sig)
	return sig, nil
}

// Verify checks sig over payload with the encoded public key pub.
func Verify(alg string, pub, payload, sig []byte) error {
	switch alg {
	case AlgorithmEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: ed25519 public key length", ErrInvalidKey)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(pub), payload, sig) {
			return ErrSignatureInvalid
		}
		return nil
	case AlgorithmDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		if len(sig) != mode3.SignatureSize || !mode3.Verify(&pk, payload, sig) {
			return ErrSignatureInvalid
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

// signatureMethodURI returns the XML signature method identifier for alg.
func signatureMethodURI(alg string) string {
	switch alg {
	case AlgorithmEd25519:
		return "http://www.w3.org/2021/04/xmldsig-more#eddsa-ed25519"
	default:
		return "urn:asic:signature:" + alg
	}
}
