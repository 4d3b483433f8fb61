// Package retriever binds the embedding collaborator and the vector store
// behind a single search contract, and owns the knowledge-base load step.
package retriever

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"reog-rag/internal/chromemdb"
	"reog-rag/internal/kb"
	"reog-rag/internal/models"
)

// Embedder is the embedding collaborator contract; satisfied by
// langchaingo's *embeddings.EmbedderImpl and by test fakes.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Retriever struct {
	store          *chromemdb.Store
	embedder       Embedder
	kbFile         string
	scoreThreshold float64
	embedBatchSize int
}

func New(store *chromemdb.Store, embedder Embedder, kbFile string, scoreThreshold float64, embedBatchSize int) *Retriever {
	return &Retriever{
		store:          store,
		embedder:       embedder,
		kbFile:         kbFile,
		scoreThreshold: scoreThreshold,
		embedBatchSize: embedBatchSize,
	}
}

// Load populates the vector store from the prepared knowledge base. It is
// idempotent: a non-empty collection short-circuits unless forceReload is
// set, in which case the collection is dropped and rebuilt with fresh
// embeddings. A missing knowledge-base file degrades to an empty store.
func (r *Retriever) Load(ctx context.Context, forceReload bool) error {
	existing := r.store.Count()
	if existing > 0 && !forceReload {
		log.Info().Int("documents", existing).Msg("Knowledge base already loaded")
		return nil
	}

	if forceReload && existing > 0 {
		log.Warn().Msg("Force reload: deleting existing collection")
		if err := r.store.Recreate(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(r.kbFile); err != nil {
		log.Error().Str("file", r.kbFile).Msg("Knowledge base file not found, run prepare first")
		return nil
	}

	base, err := kb.LoadKnowledgeBase(r.kbFile)
	if err != nil {
		log.Error().Err(err).Str("file", r.kbFile).Msg("Error reading knowledge base")
		return nil
	}

	docs := base.Documents
	log.Info().Int("documents", len(docs)).Msg("Loading knowledge base into vector store")
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	embeddings, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding knowledge base: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(docs), len(embeddings))
	}

	records := make([]chromemdb.Document, len(docs))
	for i, d := range docs {
		records[i] = chromemdb.Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: embeddings[i],
			Metadata: map[string]string{
				models.MetaTitle:      d.Title,
				models.MetaCategory:   d.Category,
				models.MetaLanguage:   d.Language,
				models.MetaKeywords:   strings.Join(d.Keywords, ","),
				models.MetaWordCount:  strconv.Itoa(d.Metadata.WordCount),
				models.MetaSourceFile: d.Metadata.SourceFile,
			},
		}
	}

	if err := r.store.AddDocuments(ctx, records, r.embedBatchSize); err != nil {
		return err
	}

	log.Info().Int("documents", len(records)).Msg("Knowledge base loaded")
	return nil
}

// Search embeds the query and runs a filtered nearest-neighbor lookup.
// Results below the score threshold are dropped after ranking, so an empty
// slice is a valid outcome distinct from an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int, languageFilter, categoryFilter string) ([]models.RetrievedResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	where := make(map[string]string)
	if languageFilter != "" {
		where[models.MetaLanguage] = languageFilter
	}
	if categoryFilter != "" {
		where[models.MetaCategory] = categoryFilter
	}
	if len(where) == 0 {
		where = nil
	}

	hits, err := r.store.QueryEmbedding(ctx, queryEmbedding, topK, where)
	if err != nil {
		return nil, err
	}

	results := make([]models.RetrievedResult, 0, len(hits))
	for _, hit := range hits {
		// chromem reports cosine similarity; derive a distance so the
		// bounded 1/(1+d) score mapping applies
		distance := 1 - float64(hit.Similarity)
		score := 1 / (1 + distance)
		if score < r.scoreThreshold {
			continue
		}
		results = append(results, models.RetrievedResult{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    score,
			Distance: distance,
			Metadata: hit.Metadata,
		})
	}

	log.Info().Str("query", truncate(query, 50)).Int("results", len(results)).Msg("Search complete")
	return results, nil
}

// GetDocument fetches a stored document by id, nil when absent.
func (r *Retriever) GetDocument(ctx context.Context, id string) (*chromemdb.Document, error) {
	return r.store.GetByID(ctx, id)
}

// Count returns the number of documents in the vector store.
func (r *Retriever) Count() int {
	return r.store.Count()
}

// CollectionStats summarizes the loaded collection.
type CollectionStats struct {
	TotalDocuments int      `json:"total_documents"`
	Categories     []string `json:"categories"`
	Languages      []string `json:"languages"`
}

// Stats reports the collection size plus category/language coverage from the
// knowledge-base file when it is readable.
func (r *Retriever) Stats() CollectionStats {
	stats := CollectionStats{TotalDocuments: r.store.Count()}
	if base, err := kb.LoadKnowledgeBase(r.kbFile); err == nil {
		stats.Categories = base.Metadata.Categories
		stats.Languages = base.Metadata.Languages
	}
	return stats
}

// truncate cuts on rune boundaries so multi-byte characters survive intact.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
