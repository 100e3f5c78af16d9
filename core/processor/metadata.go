package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	asic "github.com/meigma/asic/core"
	"github.com/meigma/asic/core/multidigest"
)

// Metadata writes a fixed entry under META-INF at a chosen lifecycle point.
type Metadata struct {
	at       asic.Lifecycle
	name     string
	mimeType string
	data     []byte
}

var _ asic.Processor = (*Metadata)(nil)

// NewMetadata returns a processor that writes data to META-INF/<name>.
// Names already under META-INF are used as given.
func NewMetadata(at asic.Lifecycle, name, mimeType string, data []byte) *Metadata {
	if !asic.IsReservedPath(name) {
		name = path.Join(asic.MetaInfPrefix, name)
	}
	return &Metadata{at: at, name: name, mimeType: mimeType, data: append([]byte(nil), data...)}
}

// Name returns the entry path written by the processor.
func (m *Metadata) Name() string { return m.name }

// Lifecycle implements asic.Processor.
func (m *Metadata) Lifecycle() asic.Lifecycle { return m.at }

// Perform implements asic.Processor.
func (m *Metadata) Perform(_ context.Context, layer asic.WriterLayer, _ *asic.Container, _ asic.Config) error {
	if err := write(layer, asic.EntryMetadata, m.name, m.mimeType, m.data); err != nil {
		return fmt.Errorf("write %s: %w", m.name, err)
	}
	return nil
}

// DescriptorsPath is the entry written by Descriptors.
const DescriptorsPath = "META-INF/descriptors.json"

// Descriptors writes META-INF/descriptors.json, a JSON array of OCI content
// descriptors for the data entries, digested with the primary algorithm.
type Descriptors struct{}

var _ asic.Processor = Descriptors{}

// Lifecycle implements asic.Processor.
func (Descriptors) Lifecycle() asic.Lifecycle {
	return asic.LifecycleAfterSignature
}

// Perform implements asic.Processor.
func (Descriptors) Perform(_ context.Context, layer asic.WriterLayer, c *asic.Container, cfg asic.Config) error {
	descs, err := EntryDescriptors(c, cfg.DigestAlgorithms)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptors: %w", err)
	}
	if err := write(layer, asic.EntryMetadata, DescriptorsPath, "application/json", data); err != nil {
		return fmt.Errorf("write descriptors: %w", err)
	}
	return nil
}

// EntryDescriptors returns an OCI descriptor per data entry of c.
func EntryDescriptors(c *asic.Container, algs []multidigest.Algorithm) ([]ocispec.Descriptor, error) {
	entries := c.DataEntries()
	descs := make([]ocispec.Descriptor, 0, len(entries))
	for _, e := range entries {
		desc := ocispec.Descriptor{
			MediaType: e.MimeType,
			Size:      int64(e.Size), //nolint:gosec // entry sizes fit int64 in practice
			Annotations: map[string]string{
				ocispec.AnnotationTitle: e.Path,
			},
		}
		for _, alg := range algs {
			if d, ok := e.Digests.Digest(alg); ok {
				desc.Digest = d
				break
			}
		}
		if desc.Digest == "" {
			return nil, fmt.Errorf("no OCI digest for %s", e.Path)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}
