package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FingerprintDomain prefixes the hashed predicate. The version suffix
// leaves room for changing the tree encoding.
const FingerprintDomain = "sift/filter/v1"

// Fingerprint returns a stable content hash of p: SHA-256 over the domain,
// a 0x00 separator and Marshal(p), hex encoded.
//
// Predicates with the same tree share a fingerprint however they were
// written, so a structured request and the equivalent typed query hash
// alike. Operand order is significant: a and b differs from b and a.
func Fingerprint(p Predicate) (string, error) {
	data, err := Marshal(p)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(FingerprintDomain, data), nil
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
