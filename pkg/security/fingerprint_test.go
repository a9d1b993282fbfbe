package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashmarket/storefront/pkg/security"
)

func TestFingerprintIsStableAndOpaque(t *testing.T) {
	a := security.FingerprintString("testuser")
	assert.Len(t, a, 64)
	assert.Equal(t, a, security.Fingerprint([]byte("testuser")))
	assert.NotContains(t, a, "testuser")
	assert.NotEqual(t, a, security.FingerprintString("testuser2"))
}
