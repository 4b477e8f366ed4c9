// Package extract pulls raw text out of uploaded binary documents.
package extract

import (
	"bytes"
	"io"
	"log"
	"strings"

	"code.sajari.com/docconv/v2"

	"github.com/docchat-io/docchat/internal/domain"
)

// mime types accepted by the converter, keyed by document type.
var mimeTypes = map[domain.DocumentType]string{
	domain.DocumentTypePDF:  "application/pdf",
	domain.DocumentTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type convertFunc func(r io.Reader, mimeType string, readability bool) (*docconv.Response, error)

// Extractor converts a batch of documents into a single raw text string.
type Extractor struct {
	convert convertFunc
}

// New creates an Extractor backed by docconv.
func New() *Extractor {
	return &Extractor{convert: docconv.Convert}
}

// ExtractText extracts text from each supported document in order and
// concatenates the results, appending a newline after each document's text.
// Unsupported document types are skipped with a warning. A document that
// cannot be parsed aborts the whole batch; no partial text is returned.
func (e *Extractor) ExtractText(docs []domain.Document) (string, error) {
	var sb strings.Builder

	for _, doc := range docs {
		mimeType, ok := mimeTypes[doc.Type]
		if !ok {
			log.Printf("extract: skipping unsupported file %q", doc.Filename)
			continue
		}

		res, err := e.convert(bytes.NewReader(doc.Content), mimeType, true)
		if err != nil {
			return "", domain.NewExtractionError(doc.Filename, err)
		}

		sb.WriteString(res.Body)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
