package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/yuanlichao666/llm-ops/pkg/types"
)

var (
	// ErrUnsupportedFile is returned for directories and non-UTF-8 content
	ErrUnsupportedFile = errors.New("unsupported file")
	// ErrPDFExtraction is returned when a PDF cannot be parsed
	ErrPDFExtraction = errors.New("pdf text extraction failed")
)

// ExtPDF is the extension routed through the PDF reader
const ExtPDF = ".pdf"

// Load reads the file at path into a Document. PDFs are reduced to their
// plain text; any other file must be UTF-8 text. Empty text is returned as
// an empty document, not an error.
func Load(path string) (*types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrUnsupportedFile)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var text string
	if ext == ExtPDF {
		text, err = readPDF(path, info.Size())
	} else {
		text, err = readText(path)
	}
	if err != nil {
		return nil, err
	}

	doc := types.NewDocument(text, map[string]any{
		types.MetaSource:    path,
		types.MetaFileName:  filepath.Base(path),
		types.MetaExtension: ext,
		types.MetaSizeBytes: info.Size(),
	})
	return &doc, nil
}

// readText reads a UTF-8 file, dropping a leading byte order mark
func readText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%s is not UTF-8 text: %w", path, ErrUnsupportedFile)
	}
	return string(content), nil
}

// readPDF extracts the plain text layer of every page
func readPDF(path string, size int64) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// The PDF reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%s: %w: %v", path, ErrPDFExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(f, size)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", path, ErrPDFExtraction, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", path, ErrPDFExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%s: %w: %v", path, ErrPDFExtraction, err)
	}
	return buf.String(), nil
}
