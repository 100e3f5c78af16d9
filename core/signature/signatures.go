package signature

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	asic "github.com/meigma/asic/core"
)

// SignaturesPath is the entry written by SignaturesCreator.
const SignaturesPath = "META-INF/signatures.xml"

// XAdESSignatures is the container-level signature document.
type XAdESSignatures struct {
	XMLName   xml.Name  `xml:"http://uri.etsi.org/02918/v1.2.1# XAdESSignatures"`
	Signature Signature `xml:"http://www.w3.org/2000/09/xmldsig# Signature"`
}

// Signature holds the signed references and the signature over them.
type Signature struct {
	ID             string     `xml:"Id,attr"`
	SignedInfo     SignedInfo `xml:"SignedInfo"`
	SignatureValue string     `xml:"SignatureValue"`
	KeyInfo        KeyInfo    `xml:"KeyInfo"`
}

// SignedInfo is the signed part of a Signature.
type SignedInfo struct {
	XMLName         xml.Name        `xml:"http://www.w3.org/2000/09/xmldsig# SignedInfo"`
	SignatureMethod SignatureMethod `xml:"SignatureMethod"`
	References      []Reference     `xml:"Reference"`
}

// SignatureMethod identifies the signature algorithm by URI.
type SignatureMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

// Reference records the digest of one data entry.
type Reference struct {
	URI          string       `xml:"URI,attr"`
	DigestMethod DigestMethod `xml:"DigestMethod"`
	DigestValue  string       `xml:"DigestValue"`
}

// KeyInfo carries the verification key as "<algorithm>:<base64>".
type KeyInfo struct {
	KeyName string `xml:"KeyName"`
}

// SignaturesCreator signs a container with a single signatures.xml entry
// whose SignatureValue covers the marshalled SignedInfo element. Root files
// cannot be expressed.
type SignaturesCreator struct {
	signer Signer
}

// NewSignaturesCreator returns a creator that signs with s.
func NewSignaturesCreator(s Signer) *SignaturesCreator {
	return &SignaturesCreator{signer: s}
}

// SupportsRootFile implements asic.SignatureCreator.
func (s *SignaturesCreator) SupportsRootFile() bool { return false }

// Create implements asic.SignatureCreator.
func (s *SignaturesCreator) Create(ctx context.Context, layer asic.WriterLayer, c *asic.Container, cfg asic.Config) error {
	info, err := BuildSignedInfo(c, cfg, s.signer.Algorithm())
	if err != nil {
		return err
	}
	signed, err := xml.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal signed info: %w", err)
	}
	sig, err := s.signer.Sign(ctx, signed)
	if err != nil {
		return fmt.Errorf("sign references: %w", err)
	}

	doc := XAdESSignatures{
		Signature: Signature{
			ID:             "S0",
			SignedInfo:     *info,
			SignatureValue: base64.StdEncoding.EncodeToString(sig),
			KeyInfo: KeyInfo{
				KeyName: s.signer.Algorithm() + ":" + base64.StdEncoding.EncodeToString(s.signer.PublicKey()),
			},
		},
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	if err := writeEntry(layer, asic.EntrySignature, SignaturesPath, xmlMimeType, data); err != nil {
		return fmt.Errorf("write signatures: %w", err)
	}
	cfg.Log().Debug("signatures written", "algorithm", s.signer.Algorithm(), "references", len(info.References))
	return nil
}

// BuildSignedInfo lists every data entry of c for a signature made with alg.
func BuildSignedInfo(c *asic.Container, cfg asic.Config, alg string) (*SignedInfo, error) {
	entries, err := dataEntries(c)
	if err != nil {
		return nil, err
	}
	digestAlg, uri, err := referenceAlgorithm(cfg)
	if err != nil {
		return nil, err
	}

	info := &SignedInfo{
		SignatureMethod: SignatureMethod{Algorithm: signatureMethodURI(alg)},
		References:      make([]Reference, 0, len(entries)),
	}
	for _, e := range entries {
		sum, ok := e.Digests[digestAlg]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %s digest", ErrUncommittedEntry, e.Path, digestAlg)
		}
		info.References = append(info.References, Reference{
			URI:          e.Path,
			DigestMethod: DigestMethod{Algorithm: uri},
			DigestValue:  base64.StdEncoding.EncodeToString(sum),
		})
	}
	return info, nil
}
