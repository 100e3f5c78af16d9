package encryption

import (
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	asic "github.com/meigma/asic/core"
)

// AgeExtension is appended to the names of entries encrypted with Age.
const AgeExtension = ".age"

// ErrNoRecipients is returned when an Age filter has no recipients.
var ErrNoRecipients = errors.New("encryption: at least one recipient is required")

// Age encrypts entries to one or more age recipients.
type Age struct {
	recipients []age.Recipient
}

var _ asic.EncryptionFilter = (*Age)(nil)

// NewAge returns a filter encrypting to recipients.
func NewAge(recipients ...age.Recipient) (*Age, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	return &Age{recipients: append([]age.Recipient(nil), recipients...)}, nil
}

// ParseAgeRecipients parses X25519 recipients in age1... form.
func ParseAgeRecipients(keys ...string) (*Age, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		r, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parse recipient %q: %w", key, err)
		}
		recipients = append(recipients, r)
	}
	return NewAge(recipients...)
}

// Filename implements asic.EncryptionFilter.
func (a *Age) Filename(original string) string {
	return original + AgeExtension
}

// NewFilter implements asic.EncryptionFilter.
func (a *Age) NewFilter(w io.WriteCloser, cfg asic.Config) (io.WriteCloser, error) {
	enc, err := age.Encrypt(w, a.recipients...)
	if err != nil {
		return nil, fmt.Errorf("create age encryptor: %w", err)
	}
	cfg.Log().Debug("age filter opened", "recipients", len(a.recipients))
	return newChain(enc, w), nil
}

// DecryptAge returns a reader of the plaintext of an entry encrypted with Age.
func DecryptAge(r io.Reader, identities ...age.Identity) (io.Reader, error) {
	pr, err := age.Decrypt(r, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypt age: %w", err)
	}
	return pr, nil
}
