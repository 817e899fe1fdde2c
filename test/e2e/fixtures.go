package e2e

import (
	"archive/zip"
	"bytes"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions are the upload formats exercised end to end. PDF is
// covered by the extractor's own tests since there is no small PDF writer here.
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx"}

// MinimalFile returns the bytes of a file of the given extension containing text.
func MinimalFile(ext, text string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(text), nil
	case ".xlsx":
		return minimalXlsx(text)
	default:
		return []byte(text), nil
	}
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", "Part"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue("Sheet1", "A2", text); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
