package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPlainFile(t *testing.T) {
	text, err := Text([]byte("hello world"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTextMarkdownFile(t *testing.T) {
	text, err := Text([]byte("# Title\n\nbody"), "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody", text)
}

func TestTextExtensionCaseInsensitive(t *testing.T) {
	_, err := Text([]byte("data"), "NOTES.TXT")
	assert.NoError(t, err)
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := Text([]byte("binary"), "archive.zip")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTextInvalidUTF8(t *testing.T) {
	_, err := Text([]byte{0xff, 0xfe, 0xfd}, "broken.txt")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestTextCorruptPDF(t *testing.T) {
	_, err := Text([]byte("definitely not a pdf"), "file.pdf")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestTextEmptyPDF(t *testing.T) {
	_, err := Text(nil, "file.pdf")
	assert.ErrorIs(t, err, ErrCorruptFile)
}
