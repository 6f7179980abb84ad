package secrets

import (
	"crypto/rand"
	"encoding/base64"

	dErrors "witchmart/pkg/domain-errors"
)

// MinSigningKeyLength is the shortest session signing key accepted outside
// development.
const MinSigningKeyLength = 32

// Generate creates a cryptographically secure random secret, base64url encoded.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
