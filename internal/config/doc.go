// Package config loads segmenter settings.
//
// Values are layered with koanf: built-in defaults, then environment
// variables prefixed with SEGMENTER_, then explicit overrides supplied by
// the command line. The first word after the prefix names the section:
//
//	SEGMENTER_SEGMENTER_BUFFER_SIZE=2   -> segmenter.buffer_size
//	SEGMENTER_EMBEDDER_PROVIDER=openai  -> embedder.provider
//	SEGMENTER_INDEXER_INCLUDE=**/*.md,**/*.txt
//
// The merged configuration is validated before use; a leading ~ in
// storage.db_path is expanded to the home directory.
package config
