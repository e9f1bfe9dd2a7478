package extractkit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Document is a text input ready for extraction.
type Document struct {
	Path     string `json:"path,omitempty"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
	Text     string `json:"-"`
}

// LoadDocument reads a text document from disk. Binary formats (PDF, images,
// office files) are rejected with ErrUnsupportedDocument.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	doc.Path = path
	return doc, nil
}

// ReadDocument reads a text document from r, for example stdin.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !isTextual(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mtype.String())
	}

	sum := sha256.Sum256(data)
	return &Document{
		MIMEType: mtype.String(),
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
		Text:     string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))),
	}, nil
}

// isTextual walks the detected type's ancestry; JSON, CSV, HTML and XML all
// descend from text/plain.
func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
