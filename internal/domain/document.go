package domain

import (
	"path/filepath"
	"strings"
)

// DocumentType identifies the format of an uploaded document.
type DocumentType string

const (
	DocumentTypePDF         DocumentType = "pdf"
	DocumentTypeDOCX        DocumentType = "docx"
	DocumentTypeUnsupported DocumentType = "unsupported"
)

// Document is a named binary blob uploaded into a session.
// Immutable once created.
type Document struct {
	Filename string
	Content  []byte
	Type     DocumentType
}

// NewDocument builds a Document, inferring its type from the filename extension.
func NewDocument(filename string, content []byte) Document {
	return Document{
		Filename: filename,
		Content:  content,
		Type:     DetectDocumentType(filename),
	}
}

// DetectDocumentType maps a filename extension to a DocumentType.
// Anything that is not a PDF or DOCX is tagged unsupported.
func DetectDocumentType(filename string) DocumentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return DocumentTypePDF
	case ".docx":
		return DocumentTypeDOCX
	default:
		return DocumentTypeUnsupported
	}
}
