// Package processor provides writer processors that add container metadata
// at lifecycle points.
package processor

import (
	"context"
	"encoding/xml"
	"fmt"

	asic "github.com/meigma/asic/core"
)

// OpenDocumentManifestPath is the entry written by OpenDocumentManifest.
const OpenDocumentManifestPath = "META-INF/manifest.xml"

const manifestNamespace = "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"

// odfManifest is the OASIS OpenDocument manifest. Element and attribute
// names carry the "manifest:" prefix literally so the output matches what
// ODF readers expect.
type odfManifest struct {
	XMLName xml.Name       `xml:"manifest:manifest"`
	Xmlns   string         `xml:"xmlns:manifest,attr"`
	Version string         `xml:"manifest:version,attr"`
	Entries []odfFileEntry `xml:"manifest:file-entry"`
}

type odfFileEntry struct {
	FullPath  string `xml:"manifest:full-path,attr"`
	MediaType string `xml:"manifest:media-type,attr"`
}

// OpenDocumentManifest writes META-INF/manifest.xml listing the container
// root and every data entry with its media type. It runs after signing so
// the listing reflects the final set of data entries.
type OpenDocumentManifest struct{}

var _ asic.Processor = OpenDocumentManifest{}

// Lifecycle implements asic.Processor.
func (OpenDocumentManifest) Lifecycle() asic.Lifecycle {
	return asic.LifecycleAfterSignature
}

// Perform implements asic.Processor.
func (OpenDocumentManifest) Perform(_ context.Context, layer asic.WriterLayer, c *asic.Container, cfg asic.Config) error {
	m := odfManifest{
		Xmlns:   manifestNamespace,
		Version: "1.2",
		Entries: []odfFileEntry{{FullPath: "/", MediaType: asic.ContainerMimeType}},
	}
	for _, e := range c.DataEntries() {
		m.Entries = append(m.Entries, odfFileEntry{FullPath: e.Path, MediaType: e.MimeType})
	}

	data, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest.xml: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := write(layer, asic.EntryMetadata, OpenDocumentManifestPath, "text/xml", data); err != nil {
		return fmt.Errorf("write manifest.xml: %w", err)
	}
	cfg.Log().Debug("opendocument manifest written", "entries", len(m.Entries))
	return nil
}

func write(layer asic.WriterLayer, typ asic.EntryType, path, mimeType string, data []byte) error {
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
