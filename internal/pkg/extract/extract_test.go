package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("report.pdf"))
	assert.True(t, Supported("Notes.DOCX"))
	assert.True(t, Supported("readme.md"))
	assert.True(t, Supported("guide.markdown"))
	assert.True(t, Supported("plain.txt"))

	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("legacy.doc"))
	assert.False(t, Supported("noextension"))
}

func TestTextPlainFiles(t *testing.T) {
	out, err := Text("note.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	out, err = Text("doc.md", strings.NewReader("# Title\n\nBody."))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody.", out)
}

func TestTextUnsupportedExtension(t *testing.T) {
	_, err := Text("archive.zip", strings.NewReader("binary"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestTextEmptyPDF(t *testing.T) {
	out, err := Text("empty.pdf", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTextCorruptPDF(t *testing.T) {
	_, err := Text("broken.pdf", strings.NewReader("not a pdf at all"))
	require.Error(t, err)
}
