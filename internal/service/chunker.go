package service

import "strings"

// Chunking limits, in characters. Paragraphs are merged up to maxChunkSize;
// a single paragraph longer than that is hard-split.
const (
	maxChunkSize = 2000
	minChunkSize = 200
)

// chunkContent splits document text into retrieval-sized chunks. Paragraph
// boundaries are preserved where possible: consecutive small paragraphs are
// merged until the next one would overflow, and undersized trailing chunks
// are folded into their predecessor.
func chunkContent(content string) []string {
	paragraphs := splitParagraphs(content)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, para := range paragraphs {
		if len(para) > maxChunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, hardSplit(para)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	// Fold an undersized final chunk into the previous one when it fits.
	if n := len(chunks); n >= 2 && len(chunks[n-1]) < minChunkSize &&
		len(chunks[n-2])+len(chunks[n-1])+2 <= maxChunkSize {
		chunks[n-2] = chunks[n-2] + "\n\n" + chunks[n-1]
		chunks = chunks[:n-1]
	}

	return chunks
}

func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return paragraphs
}

func hardSplit(text string) []string {
	var parts []string
	for len(text) > maxChunkSize {
		cut := maxChunkSize
		// Prefer breaking at whitespace near the limit.
		if idx := strings.LastIndexByte(text[:cut], ' '); idx > maxChunkSize/2 {
			cut = idx
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
