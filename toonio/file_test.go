package toonio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/toontab/toon"
)

func TestReadWritePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toon")
	require.NoError(t, WriteAll(path, "hello\nworld\n"))

	got, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", got)
}

func TestReadWriteGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toon.gz")
	require.NoError(t, WriteAll(path, "compressed content"))

	got, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "compressed content", got)
}

func TestOpenInputMissing(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "nope.toon"))
	require.ErrorIs(t, err, toon.ErrNotFound)
}
