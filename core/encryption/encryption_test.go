package encryption

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	asic "github.com/meigma/asic/core"
	"github.com/meigma/asic/core/testutil"
)

type nopSigner struct{}

func (nopSigner) SupportsRootFile() bool { return false }

func (nopSigner) Create(_ context.Context, layer asic.WriterLayer, _ *asic.Container, _ asic.Config) error {
	w, err := layer.AddContent(asic.EntrySignature, "META-INF/signature.nop", "")
	if err != nil {
		return err
	}
	return w.Close()
}

// encryptOne writes a container with one encrypted entry and returns the
// stored member and its container entry.
func encryptOne(t *testing.T, filter asic.EncryptionFilter, name, plaintext string) (testutil.ArchiveFile, asic.Entry) {
	t.Helper()
	var buf bytes.Buffer
	w, err := asic.NewWriter(context.Background(), &buf,
		asic.WithSignatureCreator(nopSigner{}),
		asic.WithEncryptionFilter(filter))
	require.NoError(t, err)

	s, err := w.EncryptNext().Add(name, "")
	require.NoError(t, err)
	_, err = io.WriteString(s, plaintext)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stored := filter.Filename(name)
	entry, ok := w.Container().Entry(stored)
	require.True(t, ok)
	assert.True(t, entry.Encrypted)
	assert.True(t, entry.Committed(), "closing the filter commits the entry")

	require.NoError(t, w.Sign(context.Background()))
	require.NoError(t, w.Close())
	return testutil.FindFile(t, testutil.ReadArchive(t, buf.Bytes()), stored), entry
}

func TestAge_RoundTrip(t *testing.T) {
	t.Parallel()

	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	filter, err := ParseAgeRecipients(identity.Recipient().String())
	require.NoError(t, err)

	plaintext := strings.Repeat("confidential ", 1000)
	f, entry := encryptOne(t, filter, "secret.txt", plaintext)
	assert.Equal(t, "secret.txt.age", f.Name)
	assert.Equal(t, uint64(len(f.Content)), entry.Size)
	assert.NotContains(t, string(f.Content), "confidential")

	r, err := DecryptAge(bytes.NewReader(f.Content), identity)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, plaintext, string(got))
}

func TestAge_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewAge()
	require.ErrorIs(t, err, ErrNoRecipients)
	_, err = ParseAgeRecipients("not-a-key")
	require.Error(t, err)
}

func TestOpenSSL_RoundTrip(t *testing.T) {
	t.Parallel()

	password := []byte("correct horse battery staple")
	filter, err := NewOpenSSL(password)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"one block", "0123456789abcdef"},
		{"multi block", strings.Repeat("x", 1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, _ := encryptOne(t, filter, "doc.txt", tt.plaintext)
			assert.Equal(t, "doc.txt.aes", f.Name)
			assert.Equal(t, "Salted__", string(f.Content[:8]))
			assert.Zero(t, (len(f.Content)-16)%16)

			got, err := DecryptOpenSSL(bytes.NewReader(f.Content), password)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(got))
		})
	}
}

func TestOpenSSL_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewOpenSSL(nil)
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = DecryptOpenSSL(strings.NewReader("short"), []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidCiphertext)
	_, err = DecryptOpenSSL(strings.NewReader("Salted__12345678abc"), []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenSSL_SaltFailure(t *testing.T) {
	t.Parallel()

	filter, err := NewOpenSSL([]byte("pw"))
	require.NoError(t, err)
	filter.rand = errReader{}

	var buf bytes.Buffer
	w, err := asic.NewWriter(context.Background(), &buf,
		asic.WithSignatureCreator(nopSigner{}),
		asic.WithEncryptionFilter(filter))
	require.NoError(t, err)
	_, err = w.EncryptNext().Add("doc.txt", "")
	require.Error(t, err)

	// The half-opened entry was committed; the container stays consistent.
	e, ok := w.Container().Entry("doc.txt.aes")
	require.True(t, ok)
	assert.True(t, e.Committed())
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestIdentity(t *testing.T) {
	t.Parallel()

	f, entry := encryptOne(t, Identity{}, "plain.txt", "visible")
	assert.Equal(t, "plain.txt", f.Name)
	assert.Equal(t, "visible", string(f.Content))
	assert.Equal(t, uint64(7), entry.Size)

	f, _ = encryptOne(t, Identity{Extension: ".id"}, "plain.txt", "visible")
	assert.Equal(t, "plain.txt.id", f.Name)
}

func TestChain_WriteAfterClose(t *testing.T) {
	t.Parallel()

	dst := &testutil.CloseTracker{}
	s, err := Identity{}.NewFilter(dst, asic.Config{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, dst.Closes)

	_, err = s.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}

func TestOpenSSL_UnclosedStreamIsNotCommitted(t *testing.T) {
	t.Parallel()

	password := []byte("pw")
	filter, err := NewOpenSSL(password)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := asic.NewWriter(context.Background(), &buf,
		asic.WithSignatureCreator(nopSigner{}),
		asic.WithEncryptionFilter(filter))
	require.NoError(t, err)

	s, err := w.EncryptNext().Add("a.txt", "")
	require.NoError(t, err)
	_, err = io.WriteString(s, "twenty-one bytes long")
	require.NoError(t, err)

	_, err = w.Add("b.txt", "")
	require.ErrorIs(t, err, asic.ErrEntryOpen)
	require.ErrorIs(t, w.Sign(context.Background()), asic.ErrEntryOpen)

	require.NoError(t, s.Close())
	require.NoError(t, w.Sign(context.Background()))
	require.NoError(t, w.Close())

	f := testutil.FindFile(t, testutil.ReadArchive(t, buf.Bytes()), "a.txt.aes")
	plain, err := DecryptOpenSSL(bytes.NewReader(f.Content), password)
	require.NoError(t, err)
	assert.Equal(t, "twenty-one bytes long", string(plain))
}
