package service

import (
	"strings"
	"unicode"
)

// ChunkConfig controls how content text is segmented before embedding.
// Budgets are in runes.
type ChunkConfig struct {
	MaxSize int // maximum chunk length
	Overlap int // trailing runes of a chunk repeated at the start of the next
}

const (
	defaultChunkSize    = 1200
	defaultChunkOverlap = 200
)

func (c ChunkConfig) normalized() ChunkConfig {
	if c.MaxSize <= 0 {
		c.MaxSize = defaultChunkSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.MaxSize/2 {
		c.Overlap = c.MaxSize / 4
	}
	return c
}

// ChunkText splits text into ordered chunks for embedding. Paragraphs are
// packed greedily up to MaxSize; paragraphs over budget are split into
// sentences and a single sentence over budget is hard-split. Each chunk
// after the first starts with the last Overlap runes of its predecessor so
// context survives the boundary. No chunk exceeds MaxSize runes. Empty or
// whitespace-only input yields no chunks. Output is deterministic for
// identical input and config.
func ChunkText(text string, cfg ChunkConfig) []string {
	cfg = cfg.normalized()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	// The overlap seed and its separator count against the budget, so units
	// must leave room for them or the first unit after a flush would push a
	// chunk past MaxSize.
	unitBudget := cfg.MaxSize - cfg.Overlap
	if cfg.Overlap > 0 {
		unitBudget--
	}
	if unitBudget < 1 {
		unitBudget = 1
	}

	units := splitUnits(text, unitBudget)

	var chunks []string
	var cur strings.Builder
	unitsInCur := 0
	for _, u := range units {
		// Flush only when the chunk holds at least one unit, so an overlap
		// seed is never emitted on its own.
		if unitsInCur > 0 && runeLen(cur.String())+1+runeLen(u) > cfg.MaxSize {
			prev := cur.String()
			chunks = append(chunks, prev)
			cur.Reset()
			unitsInCur = 0
			if tail := tailRunes(prev, cfg.Overlap); tail != "" {
				cur.WriteString(tail)
			}
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(u)
		unitsInCur++
	}
	if unitsInCur > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitUnits breaks text into pack-able units no longer than maxSize runes:
// paragraphs, then sentences for oversized paragraphs, then hard runs for
// oversized sentences.
func splitUnits(text string, maxSize int) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var units []string
	for _, para := range strings.Split(normalized, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= maxSize {
			units = append(units, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if runeLen(sent) <= maxSize {
				units = append(units, sent)
				continue
			}
			units = append(units, hardSplit(sent, maxSize)...)
		}
	}
	return units
}

// splitSentences splits a paragraph after terminal punctuation followed by
// whitespace or end of input.
func splitSentences(paragraph string) []string {
	runes := []rune(paragraph)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			if end < len(runes) && !unicode.IsSpace(runes[end]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				sentences = append(sentences, s)
			}
			start = end
			i = end - 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit cuts a string into runs of at most max runes.
func hardSplit(s string, max int) []string {
	runes := []rune(s)
	var parts []string
	for len(runes) > max {
		parts = append(parts, string(runes[:max]))
		runes = runes[max:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return len([]rune(s))
}
