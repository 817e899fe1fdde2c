// Package extract pulls plain text out of uploaded catalogue documents.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for formats no extractor handles.
var ErrUnsupported = errors.New("unsupported document format")

// Format identifies a document encoding.
type Format string

const (
	FormatPlain Format = "plain"
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatXLSX  Format = "xlsx"
)

var extensionFormats = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".xlsx": FormatXLSX,
	".txt":  FormatPlain,
	".md":   FormatPlain,
	".csv":  FormatPlain,
	"":      FormatPlain,
}

var mediaTypeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FormatXLSX,
	"text/plain":    FormatPlain,
	"text/markdown": FormatPlain,
	"text/csv":      FormatPlain,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supports reports whether a file name has an extension the extractor reads.
func (e *Extractor) Supports(name string) bool {
	_, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Base(path), "")
}

// ExtractBytes extracts text from an uploaded file. The format is chosen from
// the file name's extension, then from contentType when the extension is unknown.
func (e *Extractor) ExtractBytes(content []byte, name, contentType string) (string, error) {
	format, err := detect(name, contentType)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatPDF:
		return extractPDF(content)
	case FormatDOCX:
		return extractDOCX(content)
	case FormatXLSX:
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}

func detect(name, contentType string) (Format, error) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f, nil
	}
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if f, ok := mediaTypeFormats[mediaType]; ok {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}
