// Package extract pulls plain text out of uploaded files, keyed by file
// extension.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptFile       = errors.New("file is corrupt or unreadable")
)

// Text extracts plain text from data based on fileName's extension.
func Text(data []byte, fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return pdfText(data)
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: %w", fileName, ErrCorruptFile)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%s: %w", fileName, ErrUnsupportedFormat)
	}
}

func pdfText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrCorruptFile
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", ErrCorruptFile)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", ErrCorruptFile)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", ErrCorruptFile)
	}
	return string(out), nil
}
