package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment(" Production "))
	assert.Equal(t, Staging, ParseEnvironment("staging"))
	assert.Equal(t, Testing, ParseEnvironment("TESTING"))
	assert.Equal(t, Development, ParseEnvironment("qa"))
	assert.Equal(t, Development, ParseEnvironment(""))
}

func TestEnvironmentDecode(t *testing.T) {
	var e Environment
	require.NoError(t, e.Decode("production"))
	assert.True(t, e.IsProduction())
	assert.Equal(t, "production", e.String())
}
