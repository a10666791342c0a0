package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTypes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listTypes(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.Contains(t, lines[1], "short_text")
	assert.Contains(t, lines[1], "Short answer")
	assert.Contains(t, lines[8], "time")
}
