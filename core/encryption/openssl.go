package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	asic "github.com/meigma/asic/core"
)

// OpenSSLExtension is appended to the names of entries encrypted with OpenSSL.
const OpenSSLExtension = ".aes"

// OpenSSL-compatible constants, matching
// "openssl enc -aes-256-cbc -pbkdf2 -iter 10000 -md sha256".
const (
	opensslHeader = "Salted__"
	saltLen       = 8
	pbkdf2Iter    = 10000
	keyLen        = 32
	ivLen         = 16
)

var (
	// ErrEmptyPassword is returned when an OpenSSL filter has no password.
	ErrEmptyPassword = errors.New("encryption: empty password")

	// ErrInvalidCiphertext is returned when OpenSSL ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("encryption: invalid ciphertext")
)

// OpenSSL encrypts entries with AES-256-CBC in the salted OpenSSL format.
// Key and IV are derived from the password with PBKDF2-HMAC-SHA256.
type OpenSSL struct {
	password []byte
	rand     io.Reader
}

var _ asic.EncryptionFilter = (*OpenSSL)(nil)

// NewOpenSSL returns a filter deriving keys from password.
func NewOpenSSL(password []byte) (*OpenSSL, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return &OpenSSL{password: append([]byte(nil), password...), rand: rand.Reader}, nil
}

// Filename implements asic.EncryptionFilter.
func (o *OpenSSL) Filename(original string) string {
	return original + OpenSSLExtension
}

// NewFilter implements asic.EncryptionFilter. The header and salt are
// written immediately; the padded final block is written on Close.
func (o *OpenSSL) NewFilter(w io.WriteCloser, cfg asic.Config) (io.WriteCloser, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(o.rand, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := w.Write([]byte(opensslHeader)); err != nil {
		return nil, err
	}
	if _, err := w.Write(salt); err != nil {
		return nil, err
	}

	block, iv, err := deriveCipher(o.password, salt)
	if err != nil {
		return nil, err
	}
	cfg.Log().Debug("openssl filter opened")
	return newChain(&cbcPKCS7Writer{w: w, mode: cipher.NewCBCEncrypter(block, iv)}, w), nil
}

func deriveCipher(password, salt []byte) (cipher.Block, []byte, error) {
	keyiv := pbkdf2.Key(password, salt, pbkdf2Iter, keyLen+ivLen, sha256.New)
	block, err := aes.NewCipher(keyiv[:keyLen])
	if err != nil {
		return nil, nil, err
	}
	return block, keyiv[keyLen:], nil
}

// cbcPKCS7Writer encrypts full blocks as they become available and pads
// the remainder on Close. Close does not close the destination.
type cbcPKCS7Writer struct {
	w    io.Writer
	mode cipher.BlockMode
	buf  []byte
}

// Write implements io.Writer.
func (c *cbcPKCS7Writer) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)

	blockSize := c.mode.BlockSize()
	n := len(c.buf) / blockSize * blockSize
	if n == 0 {
		return len(p), nil
	}

	enc := make([]byte, n)
	c.mode.CryptBlocks(enc, c.buf[:n])
	if _, err := c.w.Write(enc); err != nil {
		return 0, err
	}
	c.buf = append(c.buf[:0], c.buf[n:]...)
	return len(p), nil
}

// Close implements io.Closer.
func (c *cbcPKCS7Writer) Close() error {
	blockSize := c.mode.BlockSize()
	padLen := blockSize - len(c.buf)%blockSize
	for range padLen {
		c.buf = append(c.buf, byte(padLen))
	}

	enc := make([]byte, len(c.buf))
	c.mode.CryptBlocks(enc, c.buf)
	c.buf = c.buf[:0]
	_, err := c.w.Write(enc)
	return err
}

// DecryptOpenSSL reads a complete OpenSSL-format ciphertext from r and
// returns the plaintext.
func DecryptOpenSSL(r io.Reader, password []byte) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < len(opensslHeader)+saltLen || string(data[:len(opensslHeader)]) != opensslHeader {
		return nil, fmt.Errorf("%w: missing salted header", ErrInvalidCiphertext)
	}
	salt := data[len(opensslHeader) : len(opensslHeader)+saltLen]
	body := data[len(opensslHeader)+saltLen:]

	block, iv, err := deriveCipher(password, salt)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || len(body)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: truncated block", ErrInvalidCiphertext)
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	padLen := int(plain[len(plain)-1])
	if padLen == 0 || padLen > block.BlockSize() {
		return nil, fmt.Errorf("%w: padding range", ErrInvalidCiphertext)
	}
	for _, b := range plain[len(plain)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: padding content", ErrInvalidCiphertext)
		}
	}
	return plain[:len(plain)-padLen], nil
}
