// Package extract pulls plain text out of uploaded documents. Formats not in
// the allow list are rejected before any bytes are inspected.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var supported = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Supported reports whether the file name carries an extension this package
// can extract.
func Supported(fileName string) bool {
	return supported[Ext(fileName)]
}

// Ext returns the lowercased extension of fileName, including the dot.
func Ext(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// Text extracts plain text from r according to the file's extension.
func Text(fileName string, r io.Reader) (string, error) {
	switch Ext(fileName) {
	case ".pdf":
		return pdfText(r)
	case ".docx":
		return docxText(r)
	case ".txt", ".md", ".markdown":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read text file failed: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", Ext(fileName))
	}
}
