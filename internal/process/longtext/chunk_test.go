package longtext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(r rune, n int) string {
	return strings.Repeat(string(r), n)
}

func TestParagraphs(t *testing.T) {
	text := "첫 문단\n\n\n둘째 문단\r\n\r\n  \n셋째\n줄바꿈 유지"

	assert.Equal(t, []string{"첫 문단", "둘째 문단", "셋째\n줄바꿈 유지"}, Paragraphs(text))
	assert.Empty(t, Paragraphs(" \n\n "))
}

func TestChunk_MergesShortParagraphs(t *testing.T) {
	short1 := para('가', 30)
	short2 := para('나', 30)
	long := para('다', 100)

	chunks := Chunk(strings.Join([]string{short1, short2, long}, "\n\n"), 800)

	require.Len(t, chunks, 1)
	assert.Equal(t, short1+"\n\n"+short2+"\n\n"+long, chunks[0])
}

func TestChunk_PacksGreedily(t *testing.T) {
	a := para('가', 500)
	b := para('나', 290)
	c := para('다', 300)

	chunks := Chunk(strings.Join([]string{a, b, c}, "\n\n"), 800)

	require.Len(t, chunks, 2)
	assert.Equal(t, a+"\n\n"+b, chunks[0])
	assert.Equal(t, c, chunks[1])
}

func TestChunk_OversizedParagraphPassesWhole(t *testing.T) {
	huge := para('가', 1200)
	small := para('나', 100)

	chunks := Chunk(huge+"\n\n"+small, 800)

	require.Len(t, chunks, 2)
	assert.Equal(t, huge, chunks[0])
	assert.Equal(t, small, chunks[1])
}

func TestChunk_TrailingShortBuffer(t *testing.T) {
	chunks := Chunk(para('가', 100)+"\n\n"+para('나', 10), 800)

	require.Len(t, chunks, 1)
	assert.Equal(t, para('가', 100)+"\n\n"+para('나', 10), chunks[0])
}

func TestChunk_ReconstructsParagraphs(t *testing.T) {
	var parts []string
	for i := range 25 {
		parts = append(parts, para(rune('가'+i), 40+i*17))
	}

	text := strings.Join(parts, "\n\n")
	units := mergeShort(Paragraphs(text))

	for _, limit := range []int{120, 300, 800, 5000} {
		chunks := Chunk(text, limit)

		assert.Equal(t, strings.Join(Paragraphs(text), "\n\n"), strings.Join(chunks, "\n\n"), "limit %d", limit)

		for _, c := range chunks {
			if utf8.RuneCountInString(c) > limit {
				assert.Contains(t, units, c, "only a single merged paragraph may exceed the limit")
			}
		}
	}
}

func TestChunk_DefaultLimit(t *testing.T) {
	text := para('가', 700) + "\n\n" + para('나', 700)

	assert.Len(t, Chunk(text, 0), 2)
}

func TestChunk_ShortParagraphMergedIntoFullOneMayExceedLimit(t *testing.T) {
	short := para('가', 50)
	full := para('나', 790)
	next := para('다', 200)

	chunks := Chunk(strings.Join([]string{short, full, next}, "\n\n"), 800)

	require.Len(t, chunks, 2)
	assert.Equal(t, short+"\n\n"+full, chunks[0])
	assert.Equal(t, 842, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, next, chunks[1])
}
