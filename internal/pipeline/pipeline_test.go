package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"reog-rag/internal/models"
)

type fakeSearcher struct {
	results      []models.RetrievedResult
	err          error
	calls        int
	lastLanguage string
	lastTopK     int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int, languageFilter, _ string) ([]models.RetrievedResult, error) {
	f.calls++
	f.lastLanguage = languageFilter
	f.lastTopK = topK
	return f.results, f.err
}

type fakeComposer struct {
	answer string
	err    error
	calls  int
}

func (f *fakeComposer) Compose(_ context.Context, _ string, _ []models.RetrievedResult, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeTranscriber struct {
	transcript *models.Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (*models.Transcript, error) {
	return f.transcript, f.err
}

func reogDocuments() []models.RetrievedResult {
	return []models.RetrievedResult{
		{
			ID:      "doc_0001",
			Content: "Reog Ponorogo adalah kesenian tradisional dari Ponorogo.",
			Score:   0.92,
			Metadata: map[string]string{
				models.MetaTitle:    "Asal Usul Reog",
				models.MetaCategory: "sejarah",
			},
		},
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	searcher := &fakeSearcher{}
	comp := &fakeComposer{}
	o := New(searcher, comp, 3)

	for _, q := range []string{"", "   ", "\n\t"} {
		resp := o.Answer(context.Background(), q, Options{})
		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Answer, "error responses must carry a non-empty answer")
		require.Equal(t, models.LanguageIndonesian, resp.Language)
		require.NotEmpty(t, resp.Error)
	}
	require.Zero(t, searcher.calls, "retrieval must not run for empty questions")
}

func TestAnswer_NoResultsSkipsGeneration(t *testing.T) {
	searcher := &fakeSearcher{results: nil}
	comp := &fakeComposer{answer: "should not be used"}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Apa itu sesuatu yang tidak ada?", Options{})
	require.False(t, resp.Success)
	require.Contains(t, resp.Answer, "tidak menemukan informasi")
	require.Empty(t, resp.Error, "no results is not an error")
	require.Zero(t, comp.calls, "generation must be bypassed when retrieval is empty")
}

func TestAnswer_NoResultsEnglish(t *testing.T) {
	o := New(&fakeSearcher{}, &fakeComposer{}, 3)

	resp := o.Answer(context.Background(), "What is the history of this dance?", Options{Language: models.LanguageEnglish})
	require.False(t, resp.Success)
	require.Contains(t, resp.Answer, "couldn't find relevant information")
}

func TestAnswer_SuccessfulPipeline(t *testing.T) {
	searcher := &fakeSearcher{results: reogDocuments()}
	comp := &fakeComposer{answer: "Reog Ponorogo adalah kesenian tradisional dari Ponorogo."}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Apa itu Reog Ponorogo?", Options{ReturnSources: true, ReturnTiming: true})

	require.True(t, resp.Success)
	require.Contains(t, strings.ToLower(resp.Answer), "reog")
	require.Equal(t, models.LanguageIndonesian, resp.Language)
	require.Empty(t, resp.Error)

	require.Len(t, resp.Sources, 1)
	require.Equal(t, "Asal Usul Reog", resp.Sources[0].Title)
	require.Equal(t, "sejarah", resp.Sources[0].Category)
	require.Equal(t, 0.92, resp.Sources[0].Score)

	require.NotNil(t, resp.Timing)
	require.GreaterOrEqual(t, resp.Timing.Total, resp.Timing.Retrieval)
}

func TestAnswer_SourcesOmittedByDefault(t *testing.T) {
	searcher := &fakeSearcher{results: reogDocuments()}
	comp := &fakeComposer{answer: "Jawaban yang valid."}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Apa itu Reog?", Options{})
	require.True(t, resp.Success)
	require.Nil(t, resp.Sources)
	require.Nil(t, resp.Timing)
}

func TestAnswer_SourceExcerptTruncated(t *testing.T) {
	long := strings.Repeat("panjang sekali ", 30)
	searcher := &fakeSearcher{results: []models.RetrievedResult{{
		Content:  long,
		Score:    0.9,
		Metadata: map[string]string{models.MetaTitle: "Panjang", models.MetaCategory: "sejarah"},
	}}}
	comp := &fakeComposer{answer: "Jawaban."}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Apa itu Reog?", Options{ReturnSources: true})
	require.Len(t, resp.Sources, 1)
	require.Len(t, resp.Sources[0].Excerpt, excerptLimit+3)
	require.True(t, strings.HasSuffix(resp.Sources[0].Excerpt, "..."))
}

func TestAnswer_SourceExcerptKeepsRunesIntact(t *testing.T) {
	// odd byte offset forces a mid-rune cut under byte slicing
	long := "a" + strings.Repeat("é", 200)
	searcher := &fakeSearcher{results: []models.RetrievedResult{{
		Content:  long,
		Score:    0.9,
		Metadata: map[string]string{models.MetaTitle: "Aksen", models.MetaCategory: "sejarah"},
	}}}
	comp := &fakeComposer{answer: "Jawaban."}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Apa itu Reog?", Options{ReturnSources: true})
	require.Len(t, resp.Sources, 1)
	excerpt := resp.Sources[0].Excerpt
	require.True(t, utf8.ValidString(excerpt))
	require.Equal(t, excerptLimit+3, utf8.RuneCountInString(excerpt))
	require.True(t, strings.HasSuffix(excerpt, "..."))
}

func TestAnswer_GenerationFailure(t *testing.T) {
	searcher := &fakeSearcher{results: reogDocuments()}

	t.Run("composer error", func(t *testing.T) {
		comp := &fakeComposer{err: errors.New("timeout")}
		o := New(searcher, comp, 3)

		resp := o.Answer(context.Background(), "Apa itu Reog?", Options{})
		require.False(t, resp.Success)
		require.Contains(t, resp.Answer, "terjadi kesalahan")
		require.NotEmpty(t, resp.Error)
	})

	t.Run("empty completion", func(t *testing.T) {
		comp := &fakeComposer{answer: ""}
		o := New(searcher, comp, 3)

		resp := o.Answer(context.Background(), "Apa itu Reog?", Options{})
		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Answer)
		require.Equal(t, "answer generation failed", resp.Error)
	})
}

func TestAnswer_RetrievalFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("vector database unreachable")}
	comp := &fakeComposer{}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "What is Reog?", Options{Language: models.LanguageEnglish})
	require.False(t, resp.Success)
	require.Contains(t, resp.Answer, "there was an error")
	require.NotContains(t, resp.Answer, "unreachable", "raw error detail stays out of the user-facing answer")
	require.Contains(t, resp.Error, "unreachable")
	require.Zero(t, comp.calls)
}

func TestAnswer_LanguagePinnedAndPropagated(t *testing.T) {
	searcher := &fakeSearcher{results: reogDocuments()}
	comp := &fakeComposer{answer: "A valid answer."}
	o := New(searcher, comp, 3)

	resp := o.Answer(context.Background(), "Ceritakan sejarahnya", Options{Language: models.LanguageEnglish})
	require.Equal(t, models.LanguageEnglish, resp.Language)
	require.Equal(t, models.LanguageEnglish, searcher.lastLanguage)
}

func TestAnswer_TopKOverride(t *testing.T) {
	searcher := &fakeSearcher{results: reogDocuments()}
	comp := &fakeComposer{answer: "Jawaban."}
	o := New(searcher, comp, 3)

	o.Answer(context.Background(), "Apa itu Reog?", Options{TopK: 7})
	require.Equal(t, 7, searcher.lastTopK)

	o.Answer(context.Background(), "Apa itu Reog?", Options{})
	require.Equal(t, 3, searcher.lastTopK)
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Apa itu Reog Ponorogo?", models.LanguageIndonesian},
		{"Bagaimana sejarah tarian ini dan dari mana asalnya?", models.LanguageIndonesian},
		{"What is the history of Reog Ponorogo?", models.LanguageEnglish},
		{"Tell me about this mask, what is it made of?", models.LanguageEnglish},
		{"Reog", models.LanguageIndonesian}, // tie resolves to Indonesian
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, DetectLanguage(tc.text))
		})
	}
}

func TestAnswerAudio(t *testing.T) {
	t.Run("successful transcript feeds the pipeline", func(t *testing.T) {
		searcher := &fakeSearcher{results: reogDocuments()}
		comp := &fakeComposer{answer: "Reog Ponorogo adalah kesenian tradisional."}
		o := New(searcher, comp, 3).WithTranscriber(&fakeTranscriber{
			transcript: &models.Transcript{Text: "Apa itu Reog Ponorogo?", Language: "id", Success: true},
		})

		resp := o.AnswerAudio(context.Background(), "question.wav", Options{})
		require.True(t, resp.Success)
		require.Equal(t, models.LanguageIndonesian, resp.Language)
	})

	t.Run("failed transcription", func(t *testing.T) {
		o := New(&fakeSearcher{}, &fakeComposer{}, 3).WithTranscriber(&fakeTranscriber{
			transcript: &models.Transcript{Success: false, Language: "unknown"},
		})

		resp := o.AnswerAudio(context.Background(), "noise.wav", Options{})
		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Answer)
		require.Equal(t, "transcription failed", resp.Error)
	})

	t.Run("missing transcriber", func(t *testing.T) {
		o := New(&fakeSearcher{}, &fakeComposer{}, 3)

		resp := o.AnswerAudio(context.Background(), "question.wav", Options{})
		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Answer)
	})
}
