package service

import (
	"strings"
	"unicode/utf8"
)

// SplitConfig controls how raw text is split into retrieval chunks.
type SplitConfig struct {
	ChunkSize int
	Overlap   int
	Separator string
}

// DefaultSplitConfig provides sane defaults for chunking.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		ChunkSize: 1000,
		Overlap:   250,
		Separator: "\n",
	}
}

// SplitText splits text on the separator and greedily packs the resulting
// segments into chunks of at most ChunkSize characters, carrying the last
// Overlap characters of each chunk into the start of the next one. A single
// segment longer than ChunkSize is emitted whole; the size is a soft target.
// Empty input yields no chunks. The result is deterministic.
func SplitText(text string, cfg SplitConfig) []string {
	if text == "" {
		return nil
	}
	if cfg.ChunkSize <= 0 {
		cfg = DefaultSplitConfig()
	}
	if cfg.Separator == "" {
		cfg.Separator = "\n"
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 2
	}

	segments := strings.Split(text, cfg.Separator)

	var chunks []string
	var current string
	for i, seg := range segments {
		if i == 0 {
			current = seg
			continue
		}

		candidate := current + cfg.Separator + seg
		if utf8.RuneCountInString(candidate) <= cfg.ChunkSize || current == "" {
			current = candidate
			continue
		}

		chunks = append(chunks, current)
		if tail := overlapTail(current, cfg.Overlap); tail != "" {
			current = tail + cfg.Separator + seg
		} else {
			current = seg
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// overlapTail returns the last n runes of s.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
