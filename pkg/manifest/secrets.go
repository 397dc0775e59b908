package manifest

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecretValue returns a fresh random secret suitable for JWT or
// session signing. This is the only non-deterministic part of a render.
func GenerateSecretValue() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken, at which point nothing here is safe to continue.
		panic("failed to read random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
