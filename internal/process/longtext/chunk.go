package longtext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkChars bounds a packed chunk, in runes.
	DefaultMaxChunkChars = 800

	minParagraphRunes  = 80
	paragraphSeparator = "\n\n"
)

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	raw := blankLine.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1)
	out := make([]string, 0, len(raw))

	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Chunk splits text into paragraph-aligned chunks of at most maxChunkChars
// runes. Paragraphs shorter than 80 runes are merged forward first. A chunk
// only exceeds the limit when a single merged paragraph already does.
func Chunk(text string, maxChunkChars int) []string {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}

	merged := mergeShort(Paragraphs(text))
	chunks := make([]string, 0, len(merged))

	var current string

	for _, p := range merged {
		if current == "" {
			current = p
			continue
		}

		if runeLen(current)+runeLen(paragraphSeparator)+runeLen(p) <= maxChunkChars {
			current += paragraphSeparator + p
			continue
		}

		chunks = append(chunks, current)
		current = p
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// mergeShort joins each short paragraph with the paragraphs that follow it
// until the buffer reaches the minimum length.
func mergeShort(paragraphs []string) []string {
	out := make([]string, 0, len(paragraphs))

	var buffer string

	for _, p := range paragraphs {
		if buffer != "" {
			p = buffer + paragraphSeparator + p
		}

		if runeLen(p) < minParagraphRunes {
			buffer = p
			continue
		}

		out = append(out, p)
		buffer = ""
	}

	if buffer != "" {
		out = append(out, buffer)
	}

	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
