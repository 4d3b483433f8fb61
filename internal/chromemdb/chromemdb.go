// Package chromemdb wraps the chromem-go embedded vector database behind the
// operations the retriever needs: batched adds, filtered queries, counts and
// collection rebuild.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Document is one id/vector/content/metadata record.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Store encapsulates one chromem-go database and its active collection.
type Store struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
}

// NewStore opens (or creates) the database at dbPath. inMemory skips
// persistence entirely, which the tests rely on.
func NewStore(dbPath, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	s := &Store{db: db, collectionName: collectionName}
	if err := s.openCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openCollection() error {
	c, err := s.db.GetOrCreateCollection(s.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}
	s.collection = c
	return nil
}

// Recreate drops the collection and creates it empty, for force reloads.
func (s *Store) Recreate() error {
	if err := s.db.DeleteCollection(s.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return s.openCollection()
}

// AddDocuments inserts documents in bounded batches. The batch size is a
// throughput knob, not a correctness constraint.
func (s *Store) AddDocuments(ctx context.Context, docs []Document, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := make([]chromem.Document, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, chromem.Document{
				ID:        d.ID,
				Content:   d.Content,
				Metadata:  d.Metadata,
				Embedding: d.Embedding,
			})
		}

		if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %v", err)
		}
		log.Info().Int("added", end).Int("total", len(docs)).Msg("Added batch to vector database")
	}
	return nil
}

// Result is a query hit with its cosine similarity.
type Result struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// QueryEmbedding runs a filtered nearest-neighbor search. k is clamped to the
// collection size; an empty collection yields zero results, not an error.
func (s *Store) QueryEmbedding(ctx context.Context, embedding []float32, k int, where map[string]string) ([]Result, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

// GetByID fetches a single document, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Document, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return nil, nil
	}
	return &Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		Embedding: doc.Embedding,
	}, nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return s.collection.Count()
}
