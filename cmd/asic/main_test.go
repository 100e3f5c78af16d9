package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asic"
	"github.com/meigma/asic/core/processor"
	"github.com/meigma/asic/core/signature"
	"github.com/meigma/asic/core/testutil"
)

func writeKey(t *testing.T, dir string) (string, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return path, pub
}

func TestRun_SingleSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "site")
	testutil.WriteTree(t, src, map[string]string{"index.html": "<html/>", "app.js": "go()"})
	key, pub := writeKey(t, dir)
	out := filepath.Join(dir, "site.asice")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--out", out,
		"--key", key,
		"--root-file", "index.html",
		"--descriptors",
		"--compression", "zstd",
		src,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var desc ocispec.Descriptor
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &desc))
	assert.Equal(t, asic.ContainerMimeType, desc.MediaType)
	assert.Equal(t, "site.asice", desc.Annotations[ocispec.AnnotationTitle])

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	files := testutil.ReadArchive(t, data)
	assert.Equal(t, []string{
		"mimetype",
		"app.js",
		"index.html",
		signature.ManifestPath,
		signature.SignaturePath,
		processor.DescriptorsPath,
	}, testutil.ArchiveNames(files))
	require.NoError(t, signature.Verify(signature.AlgorithmEd25519, pub,
		testutil.FindFile(t, files, signature.ManifestPath).Content,
		testutil.FindFile(t, files, signature.SignaturePath).Content))
}

func TestRun_Batch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var sources []string
	for _, name := range []string{"alpha", "beta"} {
		src := filepath.Join(dir, name)
		testutil.WriteTree(t, src, map[string]string{name + ".txt": name})
		sources = append(sources, src)
	}
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	args := append([]string{"--out-dir", outDir, "--workers", "2", "--signer", "dilithium3", "--format", "signatures"}, sources...)
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	var descs []ocispec.Descriptor
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &descs))
	require.Len(t, descs, 2)
	assert.Equal(t, "alpha.asice", descs[0].Annotations[ocispec.AnnotationTitle])
	assert.Equal(t, "beta.asice", descs[1].Annotations[ocispec.AnnotationTitle])

	data, err := os.ReadFile(filepath.Join(outDir, "beta.asice"))
	require.NoError(t, err)
	files := testutil.ReadArchive(t, data)
	assert.Equal(t, []string{"mimetype", "beta.txt", signature.SignaturesPath}, testutil.ArchiveNames(files))
}

func TestRun_Profile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "docs")
	testutil.WriteTree(t, src, map[string]string{"readme.md": "# hi", "secrets/token.txt": "s3cr3t"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("built by ci"), 0o600))

	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	profilePath := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
digests: [sha512, blake3]
compression: none
encryption:
  age_recipients: [`+id.Recipient().String()+`]
  patterns: ["secrets/*"]
processors:
  odf_manifest: true
  metadata:
    - name: notes.txt
      mime_type: text/plain
      file: `+filepath.Join(dir, "notes.txt")+`
      stage: initial
`), 0o600))

	out := filepath.Join(dir, "docs.asice")
	var stdout, stderr bytes.Buffer
	err = run(context.Background(), []string{"-p", profilePath, "-o", out, "-q", src}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "ephemeral key")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	files := testutil.ReadArchive(t, data)
	assert.Equal(t, []string{
		"mimetype",
		"META-INF/notes.txt",
		"readme.md",
		"secrets/token.txt.age",
		signature.ManifestPath,
		signature.SignaturePath,
		processor.OpenDocumentManifestPath,
	}, testutil.ArchiveNames(files))
	assert.Contains(t, string(testutil.FindFile(t, files, signature.ManifestPath).Content),
		"http://www.w3.org/2001/04/xmlenc#sha512")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	testutil.WriteTree(t, src, map[string]string{"a.txt": "a"})

	tests := []struct {
		name string
		args []string
	}{
		{name: "no sources", args: nil},
		{name: "unknown flag", args: []string{"--nope", src}},
		{name: "out with several sources", args: []string{"--out", "x.asice", src, src}},
		{name: "bad compression", args: []string{"--compression", "lz4", src}},
		{name: "bad digest", args: []string{"--digest", "md5", "-o", filepath.Join(dir, "d.asice"), src}},
		{name: "bad signer", args: []string{"--signer", "rsa", src}},
		{name: "bad format", args: []string{"--format", "cms", src}},
		{name: "bad log level", args: []string{"--log-level", "loud", src}},
		{name: "patterns without filter", args: []string{"--encrypt", "*.txt", src}},
		{name: "missing profile", args: []string{"--profile", filepath.Join(dir, "none.yaml"), src}},
		{name: "unset password", args: []string{"--password-env", "ASIC_TEST_UNSET_PASSWORD", src}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			require.Error(t, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestEd25519Key(t *testing.T) {
	t.Parallel()

	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	fromSeed, err := ed25519Key(seed)
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), fromSeed)

	full, err := ed25519Key([]byte(fromSeed))
	require.NoError(t, err)
	assert.Equal(t, fromSeed, full)

	_, err = ed25519Key([]byte("short"))
	require.ErrorIs(t, err, signature.ErrInvalidKey)

	generated, err := ed25519Key(nil)
	require.NoError(t, err)
	assert.Len(t, generated, ed25519.PrivateKeySize)
}

func TestEncryptMatcher(t *testing.T) {
	t.Parallel()

	e := encryptProfile{Patterns: []string{"secrets/*", "*.key"}}
	match, err := e.matcher()
	require.NoError(t, err)
	assert.True(t, match("secrets/token.txt"))
	assert.True(t, match("deep/dir/server.key"))
	assert.False(t, match("readme.md"))

	_, err = (&encryptProfile{Patterns: []string{"["}}).matcher()
	require.Error(t, err)

	none, err := (&encryptProfile{}).matcher()
	require.NoError(t, err)
	assert.Nil(t, none)
}
