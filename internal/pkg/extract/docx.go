package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// docxText extracts paragraph text from a DOCX document, one paragraph per
// line.
func docxText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	doc, err := document.Read(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		var line strings.Builder
		for _, run := range para.Runs() {
			line.WriteString(run.Text())
		}
		if line.Len() > 0 {
			sb.WriteString(line.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
