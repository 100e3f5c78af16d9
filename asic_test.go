package asic_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asic"
	"github.com/meigma/asic/core/encryption"
	"github.com/meigma/asic/core/multidigest"
	"github.com/meigma/asic/core/processor"
	"github.com/meigma/asic/core/signature"
	"github.com/meigma/asic/core/testutil"
)

func TestPackage_EndToEnd(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := signature.NewEd25519Signer(priv)
	require.NoError(t, err)
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	filter, err := encryption.NewAge(id.Recipient())
	require.NoError(t, err)

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"index.html":     "<html>hello</html>",
		"keys/db.secret": "hunter2",
	})
	dest := filepath.Join(t.TempDir(), "bundle.asice")

	desc, err := asic.Package(context.Background(), asic.PackageJob{
		Dest:     dest,
		Source:   src,
		RootFile: "index.html",
		Encrypt:  func(p string) bool { return strings.HasSuffix(p, ".secret") },
	},
		asic.WithSignatureCreator(signature.NewManifestCreator(signer)),
		asic.WithEncryptionFilter(filter),
		asic.WithDigestAlgorithms(multidigest.SHA512, multidigest.BLAKE3),
		asic.WithCompression(asic.CompressionZstd),
		asic.WithProcessors(processor.OpenDocumentManifest{}, processor.Descriptors{}),
	)
	require.NoError(t, err)
	assert.Equal(t, asic.ContainerMimeType, desc.MediaType)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	files := testutil.ReadArchive(t, data)
	assert.Equal(t, []string{
		"mimetype",
		"index.html",
		"keys/db.secret.age",
		signature.ManifestPath,
		signature.SignaturePath,
		processor.OpenDocumentManifestPath,
		processor.DescriptorsPath,
	}, testutil.ArchiveNames(files))
	assert.Equal(t, asic.ContainerMimeType, string(files[0].Content))

	manifest := testutil.FindFile(t, files, signature.ManifestPath).Content
	sig := testutil.FindFile(t, files, signature.SignaturePath).Content
	require.NoError(t, signature.Verify(signature.AlgorithmEd25519, pub, manifest, sig))

	var m signature.ASiCManifest
	require.NoError(t, xml.Unmarshal(manifest, &m))
	require.Len(t, m.References, 2)
	assert.Equal(t, "index.html", m.References[0].URI)
	assert.True(t, m.References[0].Rootfile)
	assert.Equal(t, "keys/db.secret.age", m.References[1].URI)
	assert.False(t, m.References[1].Rootfile)

	plain, err := encryption.DecryptAge(bytes.NewReader(testutil.FindFile(t, files, "keys/db.secret.age").Content), id)
	require.NoError(t, err)
	got, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(got))
}

func TestWriter_ProtocolErrors(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := signature.NewEd25519Signer(priv)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := asic.NewWriter(context.Background(), &buf,
		asic.WithSignatureCreator(signature.NewSignaturesCreator(signer)))
	require.NoError(t, err)

	_, err = w.Add("META-INF/evil.xml", "")
	require.ErrorIs(t, err, asic.ErrReservedPath)
	require.ErrorIs(t, err, asic.ErrProtocol)
	require.ErrorIs(t, w.SetRootFile("a.txt"), asic.ErrRootFileUnsupported)
	require.ErrorIs(t, w.Close(), asic.ErrUnsigned)
	require.ErrorIs(t, w.Sign(context.Background()), asic.ErrNoDataEntries)
}
