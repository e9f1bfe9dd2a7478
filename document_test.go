package extractkit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "email.txt")
	require.NoError(t, os.WriteFile(path, []byte(vacationText), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Path)
	assert.Equal(t, vacationText, doc.Text)
	assert.Equal(t, int64(len(vacationText)), doc.Size)
	assert.True(t, strings.HasPrefix(doc.MIMEType, "text/plain"))
	assert.Len(t, doc.Checksum, 64)
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestReadDocument_TextualFormats(t *testing.T) {
	for name, content := range map[string]string{
		"json": `{"leave_time": "9pm"}`,
		"html": "<html><body><p>We leave at 9pm</p></body></html>",
		"csv":  "name,city\nAnn,Denver\n",
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := ReadDocument(strings.NewReader(content))
			require.NoError(t, err)
			assert.Equal(t, content, doc.Text)
		})
	}
}

func TestReadDocument_StripsBOM(t *testing.T) {
	doc, err := ReadDocument(bytes.NewReader([]byte("\xef\xbb\xbfhello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Text)
}

func TestReadDocument_RejectsBinary(t *testing.T) {
	for name, data := range map[string][]byte{
		"pdf": []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"),
		"png": {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'},
		"zip": {'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0, 0x08, 0},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDocument(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrUnsupportedDocument)
		})
	}
}
