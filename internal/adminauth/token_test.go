package adminauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/adminauth"
)

func TestHashAndCheckRoundTrip(t *testing.T) {
	hash, err := adminauth.HashToken("s3cret-token")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	ok, err := adminauth.CheckToken("s3cret-token", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckTokenRejectsWrongToken(t *testing.T) {
	hash, err := adminauth.HashToken("s3cret-token")
	require.NoError(t, err)

	ok, err := adminauth.CheckToken("wrong-token", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashTokenProducesDistinctSaltPerCall(t *testing.T) {
	h1, err := adminauth.HashToken("same-token")
	require.NoError(t, err)
	h2, err := adminauth.HashToken("same-token")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCheckTokenRejectsMalformedHash(t *testing.T) {
	_, err := adminauth.CheckToken("token", "not-a-valid-hash")
	assert.Error(t, err)
}
