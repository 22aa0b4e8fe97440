package ticket

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_UniqueIDs(t *testing.T) {
	issuer := NewIssuer()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tck, err := issuer.Issue()
		require.NoError(t, err)
		assert.False(t, seen[tck.ID], "duplicate ticket id %s", tck.ID)
		seen[tck.ID] = true
	}
}

func TestIssue_EncodesIDAsQR(t *testing.T) {
	issuer := &Issuer{NewID: func() string { return "fixed-ticket-id" }}

	tck, err := issuer.Issue()
	require.NoError(t, err)

	assert.Equal(t, "fixed-ticket-id", tck.ID)
	assert.NotEmpty(t, tck.PNG)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, tck.PNG[:4])

	require.True(t, strings.HasPrefix(tck.DataURL, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(tck.DataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, tck.PNG, decoded)
}
