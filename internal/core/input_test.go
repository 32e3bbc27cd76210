package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReadInput(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		got, err := ReadInput(strings.NewReader("lat,lng\n1,2\n"), 100)
		require.NoError(t, err)
		assert.Equal(t, "lat,lng\n1,2\n", got)
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		got, err := ReadInput(strings.NewReader("\xEF\xBB\xBFlat,lng"), 100)
		require.NoError(t, err)
		assert.Equal(t, "lat,lng", got)
	})

	t.Run("replaces invalid utf8", func(t *testing.T) {
		got, err := ReadInput(strings.NewReader("name\nCaf\xe9"), 100)
		require.NoError(t, err)
		assert.Equal(t, "name\nCaf�", got)
	})

	t.Run("exactly at limit", func(t *testing.T) {
		_, err := ReadInput(strings.NewReader("12345"), 5)
		assert.NoError(t, err)
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadInput(strings.NewReader("123456"), 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInputTooLarge)
		assert.Equal(t, "FILE001", MapError(err).Code)
	})

	t.Run("read failure", func(t *testing.T) {
		_, err := ReadInput(failingReader{}, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk gone")
	})
}
