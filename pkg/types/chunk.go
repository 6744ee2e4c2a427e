package types

import (
	"crypto/sha256"
	"errors"
	"unicode/utf8"
)

// Chunk is a stored, contiguous segment of a source document
type Chunk struct {
	// Identification
	ID         int64
	DocumentID int64
	ChunkIndex int // 0-based position within the document

	// Content
	Content     string
	ContentHash [32]byte // SHA-256 hash for deduplication
	TokenCount  int
}

// NewChunk builds a chunk with hash and token count computed
func NewChunk(documentID int64, index int, content string) *Chunk {
	c := &Chunk{
		DocumentID: documentID,
		ChunkIndex: index,
		Content:    content,
	}
	c.ComputeTokenCount()
	c.ComputeContentHash()
	return c
}

// ComputeTokenCount estimates the number of tokens in the chunk.
// Uses a simple heuristic: runes / 4, at least 1 for non-empty content.
func (c *Chunk) ComputeTokenCount() int {
	runes := utf8.RuneCountInString(c.Content)
	c.TokenCount = runes / 4
	if c.TokenCount == 0 && runes > 0 {
		c.TokenCount = 1
	}
	return c.TokenCount
}

// ComputeContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// Validate performs validation of the chunk
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}

	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be non-negative")
	}

	if c.DocumentID == 0 {
		return errors.New("document ID is required")
	}

	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
