package kb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "Reog Ponorogo adalah kesenian tradisional dari Ponorogo."
	chunks := Chunk(text, 600, 50, 100)

	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0])
}

func TestChunk_EmptyInput(t *testing.T) {
	require.Empty(t, Chunk("", 600, 50, 100))
	require.Empty(t, Chunk("   \n\t ", 600, 50, 100))
}

func TestChunk_SplitsLongText(t *testing.T) {
	sentence := "Reog Ponorogo adalah pertunjukan rakyat yang berasal dari Ponorogo di Jawa Timur."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 20))

	chunks := Chunk(text, 200, 50, 100)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		require.NotEmpty(t, c, "chunk %d", i)
		require.Equal(t, c, strings.TrimSpace(c), "chunk %d has padding", i)
	}
}

func TestChunk_SizeBound(t *testing.T) {
	sentence := "Tarian ini menampilkan topeng Dadak Merak yang sangat besar dan berat sekali."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 30))

	maxSize, overlap := 200, 50
	chunks := Chunk(text, maxSize, overlap, 100)

	// overlap/5 words of backward context, each well under 20 chars
	overlapBudget := (overlap / 5) * 20
	for i, c := range chunks {
		if i == len(chunks)-1 {
			continue // merge rule may push the last chunk past the bound
		}
		require.LessOrEqual(t, len(c), maxSize+overlapBudget, "chunk %d too long", i)
	}
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("kata ", 100) // no terminal punctuation until the end
	text := "Kalimat pendek pembuka. " + strings.TrimSpace(long) + ". Kalimat penutup yang juga cukup pendek."

	chunks := Chunk(text, 100, 50, 10)

	found := false
	for _, c := range chunks {
		if len(c) > 100 && strings.Contains(c, "kata kata") {
			found = true
		}
	}
	require.True(t, found, "oversized sentence should survive as its own chunk")

	joined := strings.Join(chunks, " ")
	require.Contains(t, joined, "Kalimat pendek pembuka.")
	require.Contains(t, joined, "Kalimat penutup yang juga cukup pendek.")
}

func TestChunk_ShortRemnantMergedIntoPrevious(t *testing.T) {
	filler := "Pertunjukan Reog selalu diiringi musik gamelan yang meriah dan penuh semangat di alun-alun."
	text := strings.TrimSpace(strings.Repeat(filler+" ", 6)) + " Tamat."

	chunks := Chunk(text, 200, 50, 100)

	require.NotEmpty(t, chunks)
	for i, c := range chunks[:len(chunks)-1] {
		require.GreaterOrEqual(t, len(c), 100, "chunk %d below min size", i)
	}
	// the tiny trailing sentence must not stand alone
	last := chunks[len(chunks)-1]
	require.NotEqual(t, "Tamat.", last)
	require.True(t, strings.HasSuffix(last, "Tamat."))
}

func TestChunk_RoundTripPreservesSentences(t *testing.T) {
	sentences := []string{
		"Reog Ponorogo berasal dari kisah Raja Klono Sewandono yang melamar Putri Sanggalangit.",
		"Dalam perjalanan, rombongan raja dihadang oleh Raja Singabarong dari Kerajaan Kediri yang menguasai pasukan singa.",
		"Pertarungan keduanya melahirkan sosok Dadak Merak, topeng singa berhias bulu merak yang megah dan sangat berat.",
		"Hingga kini pertunjukan itu terus dipentaskan di alun-alun Ponorogo setiap bulan purnama tiba.",
		"Penari Jathilan dan Bujang Ganong turut meramaikan setiap pementasan bersama iringan Kendang dan Gong.",
	}
	text := strings.Join(sentences, " ")

	chunks := Chunk(text, 150, 50, 50)

	joined := strings.Join(chunks, " ")
	for _, s := range sentences {
		require.Contains(t, joined, s, "sentence lost during chunking")
	}
}

func TestCleanText(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		got := CleanText("satu   dua\n\ntiga\tempat")
		require.Equal(t, "satu dua tiga empat", got)
	})

	t.Run("normalizes smart quotes", func(t *testing.T) {
		got := CleanText("kata “Reog” dan ‘Warok’")
		require.Equal(t, `kata "Reog" dan 'Warok'`, got)
	})

	t.Run("strips disallowed characters", func(t *testing.T) {
		got := CleanText("harga ±Rp50.000 (per tiket) @museum")
		require.NotContains(t, got, "±")
		require.NotContains(t, got, "@")
		require.NotContains(t, got, "(")
	})

	t.Run("keeps diacritics", func(t *testing.T) {
		got := CleanText("café sérieux")
		require.Equal(t, "café sérieux", got)
	})
}

func TestExtractKeywords(t *testing.T) {
	text := "Reog Ponorogo adalah kesenian Reog yang berasal dari Ponorogo. " +
		"Kesenian Reog menampilkan topeng besar."

	keywords := ExtractKeywords(text, 5)

	require.NotEmpty(t, keywords)
	require.Equal(t, "reog", keywords[0], "most frequent word first")
	require.NotContains(t, keywords, "yang", "stopwords excluded")
	require.NotContains(t, keywords, "dari", "stopwords excluded")
	for _, kw := range keywords {
		require.Greater(t, len(kw), 3, "short words excluded")
	}
}

func TestExtractKeywords_TopNLimit(t *testing.T) {
	text := "gamelan kendang saron gong kempul angklung terompet barongan warok jathilan"
	keywords := ExtractKeywords(text, 3)
	require.Len(t, keywords, 3)
}
