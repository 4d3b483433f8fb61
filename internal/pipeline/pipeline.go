// Package pipeline sequences the answer flow: validation, language
// detection, retrieval, generation and formatting, with localized fallback
// responses on every failure path.
package pipeline

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reog-rag/internal/models"
)

const excerptLimit = 150

// Searcher is the retrieval collaborator contract.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, languageFilter, categoryFilter string) ([]models.RetrievedResult, error)
}

// AnswerComposer is the generation collaborator contract.
type AnswerComposer interface {
	Compose(ctx context.Context, question string, documents []models.RetrievedResult, language string) (string, error)
}

// Transcriber is the optional speech-to-text collaborator contract.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error)
}

// Orchestrator runs the retrieval-augmented answer pipeline. It is stateless
// per call; concurrent calls are safe as long as the collaborators are.
type Orchestrator struct {
	searcher    Searcher
	composer    AnswerComposer
	transcriber Transcriber
	topK        int
}

func New(searcher Searcher, composer AnswerComposer, topK int) *Orchestrator {
	return &Orchestrator{searcher: searcher, composer: composer, topK: topK}
}

// WithTranscriber enables the audio input path.
func (o *Orchestrator) WithTranscriber(t Transcriber) *Orchestrator {
	o.transcriber = t
	return o
}

// Options controls one Answer call.
type Options struct {
	// Language pins the answer language; empty means auto-detect.
	Language string
	// TopK overrides the configured retrieval depth when positive.
	TopK int
	// ReturnSources attaches truncated source excerpts.
	ReturnSources bool
	// ReturnTiming attaches per-stage durations.
	ReturnTiming bool
	// Category restricts retrieval to one category.
	Category string
}

// Answer runs the full pipeline for one question. It never returns an empty
// answer: every failure path produces a localized message with Success=false.
func (o *Orchestrator) Answer(ctx context.Context, question string, opts Options) models.PipelineResponse {
	started := time.Now()
	timing := models.Timing{}

	logger := log.With().Str("request_id", uuid.NewString()).Logger()

	question = strings.TrimSpace(question)
	if question == "" {
		lang := opts.Language
		if lang == "" {
			lang = models.LanguageIndonesian
		}
		logger.Warn().Msg("Empty question")
		return errorResponse("empty question", lang)
	}

	language := opts.Language
	if language == "" {
		language = DetectLanguage(question)
		logger.Info().Str("language", language).Msg("Auto-detected language")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = o.topK
	}

	logger.Info().Str("question", truncate(question, 60)).Msg("RAG pipeline start")

	retrievalStart := time.Now()
	documents, err := o.searcher.Search(ctx, question, topK, language, opts.Category)
	timing.Retrieval = time.Since(retrievalStart)
	if err != nil {
		logger.Error().Err(err).Msg("Retrieval failed")
		return errorResponse(err.Error(), language)
	}

	if len(documents) == 0 {
		logger.Warn().Msg("No relevant documents found")
		timing.Total = time.Since(started)
		return noInfoResponse(language)
	}
	logger.Info().Int("documents", len(documents)).Msg("Retrieved documents")

	generationStart := time.Now()
	answer, err := o.composer.Compose(ctx, question, documents, language)
	timing.Generation = time.Since(generationStart)
	if err != nil || answer == "" {
		logger.Error().Err(err).Msg("Generation failed")
		return errorResponse("answer generation failed", language)
	}
	logger.Info().Int("chars", len(answer)).Msg("Generated answer")

	timing.Total = time.Since(started)

	response := models.PipelineResponse{
		Answer:   answer,
		Language: language,
		Success:  true,
	}
	if opts.ReturnSources {
		response.Sources = formatSources(documents)
	}
	if opts.ReturnTiming {
		t := timing
		response.Timing = &t
	}
	return response
}

// AnswerAudio transcribes the audio file and runs the pipeline on the
// normalized transcript. The transcript's detected language pins the answer
// language when it is one of the supported pair.
func (o *Orchestrator) AnswerAudio(ctx context.Context, audioPath string, opts Options) models.PipelineResponse {
	lang := opts.Language
	if lang == "" {
		lang = models.LanguageIndonesian
	}

	if o.transcriber == nil {
		return errorResponse("speech-to-text is not configured", lang)
	}

	transcript, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil || !transcript.Success {
		log.Error().Err(err).Str("audio", audioPath).Msg("Transcription failed")
		return errorResponse("transcription failed", lang)
	}

	if opts.Language == "" {
		switch strings.ToLower(transcript.Language) {
		case models.LanguageIndonesian, "indonesian":
			opts.Language = models.LanguageIndonesian
		case models.LanguageEnglish, "english":
			opts.Language = models.LanguageEnglish
		}
	}
	return o.Answer(ctx, transcript.Text, opts)
}

// Indonesian and English marker words for the detection heuristic.
var (
	idKeywords = []string{"apa", "yang", "adalah", "ini", "itu", "dengan", "dari", "ke", "di", "untuk"}
	enKeywords = []string{"what", "is", "the", "this", "that", "with", "from", "to", "in", "for"}
)

// DetectLanguage scores keyword overlap against two fixed marker lists.
// Ties resolve to Indonesian. This is a coarse heuristic, not a statistical
// language detector.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)

	idScore, enScore := 0, 0
	for _, kw := range idKeywords {
		if strings.Contains(lower, kw) {
			idScore++
		}
	}
	for _, kw := range enKeywords {
		if strings.Contains(lower, kw) {
			enScore++
		}
	}

	if idScore >= enScore {
		return models.LanguageIndonesian
	}
	return models.LanguageEnglish
}

func formatSources(documents []models.RetrievedResult) []models.Source {
	sources := make([]models.Source, 0, len(documents))
	for _, doc := range documents {
		title := doc.Metadata[models.MetaTitle]
		if title == "" {
			title = "Unknown"
		}
		category := doc.Metadata[models.MetaCategory]
		if category == "" {
			category = "Unknown"
		}
		excerpt := truncate(doc.Content, excerptLimit)
		sources = append(sources, models.Source{
			Title:    title,
			Category: category,
			Score:    math.Round(doc.Score*1000) / 1000,
			Excerpt:  excerpt,
		})
	}
	return sources
}

func noInfoResponse(language string) models.PipelineResponse {
	answer := "I'm sorry, I couldn't find relevant information to answer your question in my knowledge base about Reog Ponorogo."
	if language == models.LanguageIndonesian {
		answer = "Maaf, saya tidak menemukan informasi yang relevan untuk menjawab pertanyaan Anda di basis pengetahuan saya tentang Reog Ponorogo."
	}
	return models.PipelineResponse{
		Answer:   answer,
		Language: language,
		Success:  false,
	}
}

func errorResponse(errMsg, language string) models.PipelineResponse {
	answer := "I'm sorry, there was an error processing your question. Please try again."
	if language == models.LanguageIndonesian {
		answer = "Maaf, terjadi kesalahan saat memproses pertanyaan Anda. Silakan coba lagi."
	}
	return models.PipelineResponse{
		Answer:   answer,
		Language: language,
		Success:  false,
		Error:    errMsg,
	}
}

// truncate cuts on rune boundaries so multi-byte characters survive intact.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
