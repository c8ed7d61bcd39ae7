package csvtable

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReader(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("location,iso_code,vaccines\nThailand,THA,Sinovac"))
		require.NoError(t, err)
		assert.Equal(t, []string{"location", "iso_code", "vaccines"}, r.Headers())
	})

	t.Run("BOM is stripped", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("\xEF\xBB\xBFiso_code,vaccines\nTHA,Sinovac"))
		require.NoError(t, err)
		assert.Equal(t, "iso_code", r.Headers()[0])
	})

	t.Run("empty input", func(t *testing.T) {
		r, err := NewReader(strings.NewReader(""))
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewReader(strings.NewReader("a,b\n\xff\xfe,c"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a;b\n1;2"), WithDelimiter(';'))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, r.Headers())
	})

	t.Run("headers are trimmed", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("  iso_code , vaccines \nTHA,x"))
		require.NoError(t, err)
		assert.True(t, r.HasColumn("iso_code"))
		assert.True(t, r.HasColumn("vaccines"))
	})
}

func TestReader_Require(t *testing.T) {
	r, err := NewReader(strings.NewReader("iso_code,location\nTHA,Thailand"))
	require.NoError(t, err)

	assert.NoError(t, r.Require("iso_code"))

	err = r.Require("iso_code", "vaccines", "source_url")
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "vaccines, source_url")
}

func TestReader_Rows(t *testing.T) {
	input := "location,iso_code,vaccines\n" +
		"Thailand,THA,\"Oxford/AstraZeneca, Sinovac\"\n" +
		",,\n" +
		"Australia,AUS\n"
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	rows, err := r.All()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Oxford/AstraZeneca, Sinovac", rows[0].Get("vaccines"))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "AUS", rows[1].Get("iso_code"))
	assert.Equal(t, "", rows[1].Get("vaccines"))
	assert.Equal(t, 3, r.Rows())

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestTrimPartialRune(t *testing.T) {
	full := []byte("héllo")
	assert.Equal(t, full, trimPartialRune(full))

	cut := []byte("h\xc3")
	assert.Equal(t, []byte("h"), trimPartialRune(cut))
}
