package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	cfg := ChunkConfig{MaxSize: 100, Overlap: 20}

	assert.Empty(t, ChunkText("", cfg))
	assert.Empty(t, ChunkText("   \n\n\t  ", cfg))
}

func TestChunkText_SingleShortText(t *testing.T) {
	chunks := ChunkText("A short paragraph.", ChunkConfig{MaxSize: 100, Overlap: 20})

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short paragraph.", chunks[0])
}

func TestChunkText_PacksParagraphsGreedily(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	chunks := ChunkText(text, ChunkConfig{MaxSize: 200, Overlap: 0})

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "First paragraph.")
	assert.Contains(t, chunks[0], "Third paragraph.")
}

func TestChunkText_OverlapBetweenAdjacentChunks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	cfg := ChunkConfig{MaxSize: 200, Overlap: 40}

	chunks := ChunkText(sb.String(), cfg)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		tail := tailRunes(chunks[i-1], cfg.Overlap)
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d should start with the overlap tail of chunk %d", i, i-1)
	}

	// The seeded overlap counts against the budget.
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), cfg.MaxSize, "chunk %d", i)
	}
}

func TestChunkText_BudgetHoldsWithLargeOverlap(t *testing.T) {
	text := strings.Repeat("Budgets must hold even when the overlap is generous. ", 40)
	cfgs := []ChunkConfig{
		{MaxSize: 100, Overlap: 40},
		{MaxSize: 100, Overlap: 99}, // normalized down, must still respect MaxSize
		{MaxSize: 60, Overlap: 25},
	}
	for _, cfg := range cfgs {
		chunks := ChunkText(text, cfg)
		require.NotEmpty(t, chunks, "config %+v", cfg)
		for i, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), cfg.MaxSize, "config %+v chunk %d", cfg, i)
		}
	}
}

func TestChunkText_HardSplitsOversizedUnit(t *testing.T) {
	word := strings.Repeat("x", 500)
	chunks := ChunkText(word, ChunkConfig{MaxSize: 100, Overlap: 0})

	require.GreaterOrEqual(t, len(chunks), 5)
	assert.Equal(t, strings.Repeat("x", 100), chunks[0])
}

func TestChunkText_Deterministic(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta.\n\nEta theta iota kappa lambda mu."
	cfg := ChunkConfig{MaxSize: 40, Overlap: 10}

	first := ChunkText(text, cfg)
	second := ChunkText(text, cfg)

	assert.Equal(t, first, second)
}

func TestChunkText_NormalizesBadConfig(t *testing.T) {
	text := "Some text to chunk."

	// Zero/negative values fall back to defaults instead of panicking.
	chunks := ChunkText(text, ChunkConfig{MaxSize: 0, Overlap: -5})
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])

	// Overlap >= MaxSize is reduced, never an infinite loop.
	chunks = ChunkText(strings.Repeat("word ", 200), ChunkConfig{MaxSize: 50, Overlap: 50})
	assert.NotEmpty(t, chunks)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One sentence. Another one! A third? Trailing fragment")

	require.Len(t, sentences, 4)
	assert.Equal(t, "One sentence.", sentences[0])
	assert.Equal(t, "Another one!", sentences[1])
	assert.Equal(t, "A third?", sentences[2])
	assert.Equal(t, "Trailing fragment", sentences[3])
}

func TestSplitSentences_KeepsDecimalsIntact(t *testing.T) {
	sentences := splitSentences("Version 2.5 shipped today. It works.")

	require.Len(t, sentences, 2)
	assert.Equal(t, "Version 2.5 shipped today.", sentences[0])
}
