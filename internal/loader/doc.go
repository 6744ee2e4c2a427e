// Package loader turns files on disk into types.Document values.
//
// Text files are read as UTF-8. PDFs go through github.com/ledongthuc/pdf
// and only their text layer is kept. Every document carries the metadata
// keys source, file_name, extension and size_bytes.
package loader
