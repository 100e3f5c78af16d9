package signature

import (
	"errors"
	"fmt"

	asic "github.com/meigma/asic/core"
	"github.com/meigma/asic/core/multidigest"
)

// ErrUnsupportedDigest is returned when none of the configured digest
// algorithms has an XML signature identifier.
var ErrUnsupportedDigest = errors.New("signature: no digest algorithm with an XML identifier")

var digestMethodURIs = map[multidigest.Algorithm]string{
	multidigest.SHA256:   "http://www.w3.org/2001/04/xmlenc#sha256",
	multidigest.SHA384:   "http://www.w3.org/2001/04/xmldsig-more#sha384",
	multidigest.SHA512:   "http://www.w3.org/2001/04/xmlenc#sha512",
	multidigest.SHA3_256: "http://www.w3.org/2007/05/xmldsig-more#sha3-256",
}

// DigestMethodURI returns the XML signature identifier of alg.
func DigestMethodURI(alg multidigest.Algorithm) (string, bool) {
	uri, ok := digestMethodURIs[alg]
	return uri, ok
}

// referenceAlgorithm picks the first configured algorithm that manifests
// can express.
func referenceAlgorithm(cfg asic.Config) (multidigest.Algorithm, string, error) {
	for _, alg := range cfg.DigestAlgorithms {
		if uri, ok := DigestMethodURI(alg); ok {
			return alg, uri, nil
		}
	}
	if len(cfg.DigestAlgorithms) == 0 {
		return multidigest.Default, digestMethodURIs[multidigest.Default], nil
	}
	return "", "", fmt.Errorf("%w: %v", ErrUnsupportedDigest, cfg.DigestAlgorithms)
}

// dataEntries returns the committed data entries of c, failing if there are
// none or if any stream was left without digests.
func dataEntries(c *asic.Container) ([]asic.Entry, error) {
	entries := c.DataEntries()
	if len(entries) == 0 {
		return nil, ErrNoDataEntries
	}
	for _, e := range entries {
		if !e.Committed() {
			return nil, fmt.Errorf("%w: %s", ErrUncommittedEntry, e.Path)
		}
	}
	return entries, nil
}
