package types

import (
	"maps"

	"github.com/google/uuid"
)

// Metadata keys written by splitters and loaders
const (
	MetaSource     = "source"
	MetaSourceID   = "source_id"
	MetaChunkIndex = "chunk_index"
	MetaFileName   = "file_name"
	MetaExtension  = "extension"
	MetaSizeBytes  = "size_bytes"
)

// Document is a unit of text flowing through loading and splitting.
// Chunks produced by a splitter are Documents too, carrying a copy of
// their source's metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// NewDocument creates a document with a random ID
func NewDocument(content string, metadata map[string]any) Document {
	return Document{
		ID:       uuid.NewString(),
		Content:  content,
		Metadata: metadata,
	}
}

// Validate checks that the document can be identified
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrMissingDocumentID
	}
	return nil
}

// CloneMetadata returns a shallow copy of the metadata map, never nil
func (d *Document) CloneMetadata() map[string]any {
	out := make(map[string]any, len(d.Metadata)+2)
	maps.Copy(out, d.Metadata)
	return out
}

// Source returns the "source" metadata value, falling back to the ID
func (d *Document) Source() string {
	if s, ok := d.Metadata[MetaSource].(string); ok && s != "" {
		return s
	}
	return d.ID
}
