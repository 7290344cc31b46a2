package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeResult_EmbedsSummaryAndPayload(t *testing.T) {
	res, err := NewEnvelopeResult("2 devices found.", map[string]interface{}{"count": 2})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "2 devices found.")
	assert.Contains(t, text, `"count": 2`)
}

func TestNewEnvelopeResult_EncodeFailureSurfacesAsError(t *testing.T) {
	res, err := NewEnvelopeResult("bad payload", map[string]interface{}{"fn": func() {}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
