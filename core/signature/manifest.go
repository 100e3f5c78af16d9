package signature

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"

	asic "github.com/meigma/asic/core"
)

// Entry names written by ManifestCreator.
const (
	ManifestPath  = "META-INF/ASiCManifest.xml"
	SignaturePath = "META-INF/signature.sig"
)

const xmlMimeType = "text/xml"

var (
	// ErrNoDataEntries is returned when signing a container without data entries.
	ErrNoDataEntries = errors.New("signature: container has no data entries")

	// ErrRootFileNotFound is returned when the root file names no data entry.
	ErrRootFileNotFound = errors.New("signature: root file is not a data entry")

	// ErrUncommittedEntry is returned when a data entry has no digests.
	ErrUncommittedEntry = errors.New("signature: data entry was not committed")
)

// ASiCManifest is the ETSI manifest listing the signed data objects.
type ASiCManifest struct {
	XMLName      xml.Name              `xml:"http://uri.etsi.org/02918/v1.2.1# ASiCManifest"`
	SigReference SigReference          `xml:"SigReference"`
	References   []DataObjectReference `xml:"DataObjectReference"`
}

// SigReference points at the detached signature covering the manifest.
type SigReference struct {
	URI      string `xml:"URI,attr"`
	MimeType string `xml:"MimeType,attr"`
}

// DataObjectReference records the digest of one data entry.
type DataObjectReference struct {
	URI          string       `xml:"URI,attr"`
	MimeType     string       `xml:"MimeType,attr,omitempty"`
	Rootfile     bool         `xml:"Rootfile,attr,omitempty"`
	DigestMethod DigestMethod `xml:"http://www.w3.org/2000/09/xmldsig# DigestMethod"`
	DigestValue  string       `xml:"http://www.w3.org/2000/09/xmldsig# DigestValue"`
}

// DigestMethod identifies a digest algorithm by URI.
type DigestMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

// ManifestCreator signs a container with an ASiCManifest and a detached
// signature over the manifest bytes. It supports root files.
type ManifestCreator struct {
	signer Signer
}

// NewManifestCreator returns a creator that signs with s.
func NewManifestCreator(s Signer) *ManifestCreator {
	return &ManifestCreator{signer: s}
}

// SupportsRootFile implements asic.SignatureCreator.
func (m *ManifestCreator) SupportsRootFile() bool { return true }

// Create implements asic.SignatureCreator.
func (m *ManifestCreator) Create(ctx context.Context, layer asic.WriterLayer, c *asic.Container, cfg asic.Config) error {
	manifest, err := BuildManifest(c, cfg, m.signer.MimeType())
	if err != nil {
		return err
	}
	data, err := xml.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	if err := writeEntry(layer, asic.EntryManifest, ManifestPath, xmlMimeType, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	sig, err := m.signer.Sign(ctx, data)
	if err != nil {
		return fmt.Errorf("sign manifest: %w", err)
	}
	if err := writeEntry(layer, asic.EntrySignature, SignaturePath, m.signer.MimeType(), sig); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	cfg.Log().Debug("manifest signed", "algorithm", m.signer.Algorithm(), "references", len(manifest.References))
	return nil
}

// BuildManifest lists every data entry of c with the digest of the first
// configured algorithm that has an XML identifier.
func BuildManifest(c *asic.Container, cfg asic.Config, sigMimeType string) (*ASiCManifest, error) {
	entries, err := dataEntries(c)
	if err != nil {
		return nil, err
	}
	alg, uri, err := referenceAlgorithm(cfg)
	if err != nil {
		return nil, err
	}

	root, hasRoot := c.RootFile()
	rootFound := false
	manifest := &ASiCManifest{
		SigReference: SigReference{URI: SignaturePath, MimeType: sigMimeType},
		References:   make([]DataObjectReference, 0, len(entries)),
	}
	for _, e := range entries {
		sum, ok := e.Digests[alg]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %s digest", ErrUncommittedEntry, e.Path, alg)
		}
		isRoot := hasRoot && e.Path == root
		rootFound = rootFound || isRoot
		manifest.References = append(manifest.References, DataObjectReference{
			URI:          e.Path,
			MimeType:     e.MimeType,
			Rootfile:     isRoot,
			DigestMethod: DigestMethod{Algorithm: uri},
			DigestValue:  base64.StdEncoding.EncodeToString(sum),
		})
	}
	if hasRoot && !rootFound {
		return nil, fmt.Errorf("%w: %s", ErrRootFileNotFound, root)
	}
	return manifest, nil
}

// writeEntry writes data as a complete entry through layer.
func writeEntry(layer asic.WriterLayer, typ asic.EntryType, path, mimeType string, data []byte) error {
	w, err := layer.AddContent(typ, path, mimeType)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
