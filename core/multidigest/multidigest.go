// Package multidigest computes several message digests over one byte stream.
//
// A MultiDigest feeds every configured algorithm in lock-step, so payload
// bytes are read once no matter how many digests a manifest needs. Once any
// digest has been finalized the MultiDigest rejects further writes.
package multidigest

import (
	_ "crypto/sha256" // registers SHA-256 for go-digest
	_ "crypto/sha512" // registers SHA-384 and SHA-512 for go-digest
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a digest algorithm.
type Algorithm string

// Supported algorithms. The SHA-2 names match go-digest so Sums can be
// rendered as digest.Digest values.
const (
	SHA256   = Algorithm(digest.SHA256)
	SHA384   = Algorithm(digest.SHA384)
	SHA512   = Algorithm(digest.SHA512)
	SHA3_256 Algorithm = "sha3-256"
	BLAKE3   Algorithm = "blake3"
)

// Default is the algorithm used when none is configured.
const Default = SHA256

var (
	// ErrNoAlgorithms is returned when a MultiDigest is built without algorithms.
	ErrNoAlgorithms = errors.New("multidigest: no algorithms")

	// ErrUnsupportedAlgorithm is returned for unknown or unconfigured algorithms.
	ErrUnsupportedAlgorithm = errors.New("multidigest: unsupported algorithm")

	// ErrFinalized is returned when writing after a digest was finalized.
	ErrFinalized = errors.New("multidigest: write after finalize")
)

// Available reports whether the algorithm can be instantiated.
func (a Algorithm) Available() bool {
	switch a {
	case SHA3_256, BLAKE3:
		return true
	case SHA256, SHA384, SHA512:
		return digest.Algorithm(a).Available()
	default:
		return false
	}
}

// Hash returns a new hash.Hash for the algorithm, or nil if unavailable.
func (a Algorithm) Hash() hash.Hash {
	switch a {
	case SHA3_256:
		return sha3.New256()
	case BLAKE3:
		return blake3.New()
	case SHA256, SHA384, SHA512:
		if !digest.Algorithm(a).Available() {
			return nil
		}
		return digest.Algorithm(a).Hash()
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	return string(a)
}

// MultiDigest accumulates one digest per configured algorithm.
// It is not safe for concurrent use.
type MultiDigest struct {
	algs   []Algorithm
	hashes map[Algorithm]hash.Hash
	sums   Sums
}

// New creates a MultiDigest over algs. Duplicate algorithms are collapsed,
// keeping the first occurrence.
func New(algs ...Algorithm) (*MultiDigest, error) {
	if len(algs) == 0 {
		return nil, ErrNoAlgorithms
	}
	m := &MultiDigest{
		algs:   make([]Algorithm, 0, len(algs)),
		hashes: make(map[Algorithm]hash.Hash, len(algs)),
	}
	for _, alg := range algs {
		if _, dup := m.hashes[alg]; dup {
			continue
		}
		h := alg.Hash()
		if h == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
		}
		m.algs = append(m.algs, alg)
		m.hashes[alg] = h
	}
	return m, nil
}

// Algorithms returns the configured algorithms in configuration order.
func (m *MultiDigest) Algorithms() []Algorithm {
	out := make([]Algorithm, len(m.algs))
	copy(out, m.algs)
	return out
}

// Write feeds p to every digest. It fails once any digest was finalized.
func (m *MultiDigest) Write(p []byte) (int, error) {
	if m.sums != nil {
		return 0, ErrFinalized
	}
	for _, alg := range m.algs {
		// hash.Hash.Write never returns an error.
		_, _ = m.hashes[alg].Write(p)
	}
	return len(p), nil
}

// Sum finalizes the MultiDigest and returns the digest for alg.
// Repeated calls return the same value.
func (m *MultiDigest) Sum(alg Algorithm) ([]byte, error) {
	sums := m.Sums()
	sum, ok := sums[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q not configured", ErrUnsupportedAlgorithm, alg)
	}
	return sum, nil
}

// Sums finalizes the MultiDigest and returns all digests.
func (m *MultiDigest) Sums() Sums {
	if m.sums == nil {
		m.sums = make(Sums, len(m.algs))
		for _, alg := range m.algs {
			m.sums[alg] = m.hashes[alg].Sum(nil)
		}
	}
	return m.sums.Clone()
}

// Finalized reports whether any digest has been finalized.
func (m *MultiDigest) Finalized() bool {
	return m.sums != nil
}

// Sums holds finalized digest values keyed by algorithm.
type Sums map[Algorithm][]byte

// Clone returns a deep copy of s.
func (s Sums) Clone() Sums {
	if s == nil {
		return nil
	}
	out := make(Sums, len(s))
	for alg, sum := range s {
		b := make([]byte, len(sum))
		copy(b, sum)
		out[alg] = b
	}
	return out
}

// Hex returns the lowercase hex encoding of the digest for alg, or "" if absent.
func (s Sums) Hex(alg Algorithm) string {
	sum, ok := s[alg]
	if !ok {
		return ""
	}
	return hex.EncodeToString(sum)
}

// Base64 returns the standard base64 encoding of the digest for alg, or "" if absent.
func (s Sums) Base64(alg Algorithm) string {
	sum, ok := s[alg]
	if !ok {
		return ""
	}
	return base64.StdEncoding.EncodeToString(sum)
}

// Digest returns the digest for alg in "<alg>:<hex>" form.
func (s Sums) Digest(alg Algorithm) (digest.Digest, bool) {
	sum, ok := s[alg]
	if !ok {
		return "", false
	}
	return digest.NewDigestFromBytes(digest.Algorithm(alg), sum), true
}
