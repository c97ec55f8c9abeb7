package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger("development"))
	defer SyncLogger()
	assert.NotNil(t, GetLogger())

	require.NoError(t, InitLogger("production"))
	assert.NotNil(t, GetLogger())
}

func TestGetLoggerWithoutInit(t *testing.T) {
	assert.NotNil(t, GetLogger())
}
