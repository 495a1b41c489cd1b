// Package chunker splits extracted page text into size-bounded,
// heading-aware passages used as retrieval units.
//
// Chunking is a pure function of its input: no I/O, no randomness.
// The token estimate is a fixed heuristic (~4 characters per token),
// not a real tokenizer. It must stay stable because chunk boundaries
// of already-ingested documents depend on it.
package chunker

import (
	"strings"
	"unicode"
)

const (
	// MinChunkTokens is the minimum estimated size of a flushed chunk.
	MinChunkTokens = 400

	// MaxChunkTokens is the maximum estimated size of any chunk.
	MaxChunkTokens = 800
)

// PageText is one page of extracted document text.
type PageText struct {
	PageNumber int
	Text       string
}

// Chunk is a bounded passage of document text, always from a single page.
// SectionHeading is empty when no heading preceded the passage.
type Chunk struct {
	PageNumber     int
	SectionHeading string
	Text           string
}

// EstimateTokens estimates the token count of text as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// isHeading reports whether a line looks like a section heading:
// trimmed length in [3,100], entirely its own upper-case form, and
// containing at least one letter.
func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 || len(trimmed) > 100 {
		return false
	}
	if trimmed != strings.ToUpper(trimmed) {
		return false
	}
	return strings.ContainsFunc(trimmed, unicode.IsLetter)
}

// splitSentences splits text on sentence boundaries: '.', '!' or '?'
// followed by whitespace. The terminator stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(runes[i+1]) {
			s := string(runes[start : i+1])
			if strings.TrimSpace(s) != "" {
				sentences = append(sentences, s)
			}
			// Skip the whitespace run after the terminator.
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}

	if start < len(runes) {
		s := string(runes[start:])
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

// ChunkPages splits pages into chunks. Pages are processed independently;
// a chunk never spans pages.
//
// Known behavior: when a new heading is encountered while the buffer is
// still below MinChunkTokens, the buffered text is dropped. Short preambles
// before a heading are therefore not retained. Changing this would shift
// the boundaries of every re-ingested document, so it stays as is.
func ChunkPages(pages []PageText) []Chunk {
	var chunks []Chunk

	for _, page := range pages {
		var heading string
		var buf string

		for line := range strings.Lines(page.Text) {
			line = strings.TrimSuffix(line, "\n")

			if isHeading(line) {
				if strings.TrimSpace(buf) != "" && EstimateTokens(buf) >= MinChunkTokens {
					chunks = append(chunks, Chunk{
						PageNumber:     page.PageNumber,
						SectionHeading: heading,
						Text:           strings.TrimSpace(buf),
					})
				}
				heading = strings.TrimSpace(line)
				buf = ""
				continue
			}

			if buf == "" {
				buf = line
			} else {
				buf += "\n" + line
			}

			// Oversized buffer: repack whole sentences into sub-chunks,
			// flush all but the trailing partial one.
			if EstimateTokens(buf) >= MaxChunkTokens {
				var packed string
				for _, sentence := range splitSentences(buf) {
					candidate := sentence
					if packed != "" {
						candidate = packed + " " + sentence
					}
					if EstimateTokens(candidate) > MaxChunkTokens && packed != "" {
						chunks = append(chunks, Chunk{
							PageNumber:     page.PageNumber,
							SectionHeading: heading,
							Text:           strings.TrimSpace(packed),
						})
						packed = sentence
					} else {
						packed = candidate
					}
				}
				buf = packed
			}
		}

		if strings.TrimSpace(buf) == "" {
			continue
		}

		// An undersized trailing buffer merges into the previous chunk when
		// that chunk is from the same page and the merge stays within bounds.
		if len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			if last.PageNumber == page.PageNumber &&
				EstimateTokens(buf) < MinChunkTokens &&
				EstimateTokens(last.Text+"\n"+buf) <= MaxChunkTokens {
				last.Text += "\n" + strings.TrimSpace(buf)
				continue
			}
		}

		chunks = append(chunks, Chunk{
			PageNumber:     page.PageNumber,
			SectionHeading: heading,
			Text:           strings.TrimSpace(buf),
		})
	}

	return chunks
}
