package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"gopkg.in/yaml.v3"

	"github.com/meigma/asic"
	"github.com/meigma/asic/core/encryption"
	"github.com/meigma/asic/core/multidigest"
	"github.com/meigma/asic/core/processor"
	"github.com/meigma/asic/core/signature"
)

// Signature formats.
const (
	formatManifest   = "manifest"
	formatSignatures = "signatures"
)

// profile is the YAML file accepted by --profile. Flags given on the command
// line override the matching profile fields.
type profile struct {
	Digests     []string         `yaml:"digests"`
	Compression string           `yaml:"compression"`
	MaxFiles    int              `yaml:"max_files"`
	Signer      signerProfile    `yaml:"signer"`
	Encryption  encryptProfile   `yaml:"encryption"`
	Processors  processorProfile `yaml:"processors"`
}

type signerProfile struct {
	Algorithm string `yaml:"algorithm"`
	Key       string `yaml:"key"`
	Format    string `yaml:"format"`
}

type encryptProfile struct {
	AgeRecipients []string `yaml:"age_recipients"`
	PasswordEnv   string   `yaml:"password_env"`
	Patterns      []string `yaml:"patterns"`
}

type processorProfile struct {
	OpenDocumentManifest bool              `yaml:"odf_manifest"`
	Descriptors          bool              `yaml:"descriptors"`
	Metadata             []metadataProfile `yaml:"metadata"`
}

type metadataProfile struct {
	Name     string `yaml:"name"`
	MimeType string `yaml:"mime_type"`
	File     string `yaml:"file"`
	Stage    string `yaml:"stage"`
}

func defaultProfile() profile {
	return profile{
		Digests:     []string{string(multidigest.Default)},
		Compression: "deflate",
		Signer: signerProfile{
			Algorithm: signature.AlgorithmEd25519,
			Format:    formatManifest,
		},
	}
}

// loadProfile reads the YAML profile at path over the defaults.
func loadProfile(path string) (profile, error) {
	p := defaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// options turns the profile into writer options.
func (p *profile) options(logger *slog.Logger) ([]asic.Option, error) {
	algs := make([]multidigest.Algorithm, 0, len(p.Digests))
	for _, d := range p.Digests {
		algs = append(algs, multidigest.Algorithm(strings.ToLower(d)))
	}
	compression, err := parseCompression(p.Compression)
	if err != nil {
		return nil, err
	}
	creator, err := p.Signer.creator(logger)
	if err != nil {
		return nil, err
	}
	opts := []asic.Option{
		asic.WithDigestAlgorithms(algs...),
		asic.WithCompression(compression),
		asic.WithSignatureCreator(creator),
		asic.WithMaxFiles(p.MaxFiles),
		asic.WithLogger(logger),
	}

	filter, err := p.Encryption.filter()
	if err != nil {
		return nil, err
	}
	if filter != nil {
		opts = append(opts, asic.WithEncryptionFilter(filter))
	}

	procs, err := p.Processors.build()
	if err != nil {
		return nil, err
	}
	if len(procs) > 0 {
		opts = append(opts, asic.WithProcessors(procs...))
	}
	return opts, nil
}

func parseCompression(name string) (asic.Compression, error) {
	switch strings.ToLower(name) {
	case "", "deflate":
		return asic.CompressionDeflate, nil
	case "none", "store":
		return asic.CompressionNone, nil
	case "zstd":
		return asic.CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

func (s *signerProfile) creator(logger *slog.Logger) (asic.SignatureCreator, error) {
	signer, err := s.signer(logger)
	if err != nil {
		return nil, err
	}
	switch s.Format {
	case "", formatManifest:
		return signature.NewManifestCreator(signer), nil
	case formatSignatures:
		return signature.NewSignaturesCreator(signer), nil
	default:
		return nil, fmt.Errorf("unknown signature format %q", s.Format)
	}
}

func (s *signerProfile) signer(logger *slog.Logger) (signature.Signer, error) {
	var data []byte
	if s.Key != "" {
		var err error
		data, err = os.ReadFile(s.Key)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
	}

	switch s.Algorithm {
	case "", signature.AlgorithmEd25519:
		key, err := ed25519Key(data)
		if err != nil {
			return nil, err
		}
		if data == nil {
			logger.Warn("no signing key given, using an ephemeral key",
				"algorithm", signature.AlgorithmEd25519,
				"public_key", fmt.Sprintf("%x", key.Public()))
		}
		return signature.NewEd25519Signer(key)
	case signature.AlgorithmDilithium3:
		key, err := dilithiumKey(data)
		if err != nil {
			return nil, err
		}
		if data == nil {
			logger.Warn("no signing key given, using an ephemeral key", "algorithm", signature.AlgorithmDilithium3)
		}
		return signature.NewDilithium3Signer(key)
	default:
		return nil, fmt.Errorf("%w: %s", signature.ErrUnsupportedAlgorithm, s.Algorithm)
	}
}

// ed25519Key accepts a PKCS#8 PEM block, a raw 32-byte seed or a raw 64-byte
// private key. No data generates a new key.
func ed25519Key(data []byte) (ed25519.PrivateKey, error) {
	if data == nil {
		_, key, err := ed25519.GenerateKey(rand.Reader)
		return key, err
	}
	if block, _ := pem.Decode(data); block != nil {
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse signing key: %w", err)
		}
		key, ok := parsed.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PEM key is %T", signature.ErrInvalidKey, parsed)
		}
		return key, nil
	}
	switch len(data) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(data), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(data), nil
	default:
		return nil, fmt.Errorf("%w: ed25519 key has %d bytes", signature.ErrInvalidKey, len(data))
	}
}

// dilithiumKey unpacks a packed mode3 private key. No data generates a new key.
func dilithiumKey(data []byte) (*mode3.PrivateKey, error) {
	if data == nil {
		_, key, err := mode3.GenerateKey(rand.Reader)
		return key, err
	}
	var key mode3.PrivateKey
	if err := key.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %w", signature.ErrInvalidKey, err)
	}
	return &key, nil
}

// filter returns the encryption filter, or nil when none is configured.
func (e *encryptProfile) filter() (asic.EncryptionFilter, error) {
	switch {
	case len(e.AgeRecipients) > 0 && e.PasswordEnv != "":
		return nil, errors.New("age recipients and a password are mutually exclusive")
	case len(e.AgeRecipients) > 0:
		return encryption.ParseAgeRecipients(e.AgeRecipients...)
	case e.PasswordEnv != "":
		password := os.Getenv(e.PasswordEnv)
		if password == "" {
			return nil, fmt.Errorf("%w: $%s is not set", encryption.ErrEmptyPassword, e.PasswordEnv)
		}
		return encryption.NewOpenSSL([]byte(password))
	default:
		if len(e.Patterns) > 0 {
			return nil, errors.New("encryption patterns need age recipients or a password")
		}
		return nil, nil
	}
}

// matcher returns a predicate selecting the files to encrypt, or nil.
// A pattern matches the slash-separated relative path or its base name.
func (e *encryptProfile) matcher() (func(string) bool, error) {
	if len(e.Patterns) == 0 {
		return nil, nil
	}
	for _, pat := range e.Patterns {
		if _, err := path.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("encryption pattern %q: %w", pat, err)
		}
	}
	patterns := e.Patterns
	return func(p string) bool {
		for _, pat := range patterns {
			if ok, _ := path.Match(pat, p); ok {
				return true
			}
			if ok, _ := path.Match(pat, path.Base(p)); ok {
				return true
			}
		}
		return false
	}, nil
}

func (p *processorProfile) build() ([]asic.Processor, error) {
	var procs []asic.Processor
	for _, m := range p.Metadata {
		stage, err := parseStage(m.Stage)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(m.File)
		if err != nil {
			return nil, fmt.Errorf("read metadata %s: %w", m.Name, err)
		}
		name := m.Name
		if name == "" {
			name = path.Base(m.File)
		}
		procs = append(procs, processor.NewMetadata(stage, name, m.MimeType, data))
	}
	if p.OpenDocumentManifest {
		procs = append(procs, processor.OpenDocumentManifest{})
	}
	if p.Descriptors {
		procs = append(procs, processor.Descriptors{})
	}
	return procs, nil
}

func parseStage(name string) (asic.Lifecycle, error) {
	switch strings.ToLower(name) {
	case "", "after-signature":
		return asic.LifecycleAfterSignature, nil
	case "initial":
		return asic.LifecycleInitial, nil
	case "before-signature":
		return asic.LifecycleBeforeSignature, nil
	default:
		return 0, fmt.Errorf("unknown processor stage %q", name)
	}
}

// modTime parses an RFC 3339 timestamp, returning the zero time for "".
func modTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse mod time: %w", err)
	}
	return t, nil
}
