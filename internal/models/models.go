package models

import "time"

// DocumentChunk is a single retrieval unit of the knowledge base.
type DocumentChunk struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	Title    string        `json:"title"`
	Language string        `json:"language"`
	Content  string        `json:"content"`
	Keywords []string      `json:"keywords"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata records where a chunk came from and how big it is.
type ChunkMetadata struct {
	SourceFile  string `json:"source_file"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	WordCount   int    `json:"word_count"`
	CharCount   int    `json:"char_count"`
}

// KnowledgeBase is the persisted document collection plus aggregate stats.
type KnowledgeBase struct {
	Metadata  KnowledgeBaseStats `json:"metadata"`
	Documents []DocumentChunk    `json:"documents"`
}

type KnowledgeBaseStats struct {
	TotalDocuments int             `json:"total_documents"`
	Categories     []string        `json:"categories"`
	Languages      []string        `json:"languages"`
	Statistics     CountStatistics `json:"statistics"`
}

type CountStatistics struct {
	ByCategory map[string]int `json:"by_category"`
	ByLanguage map[string]int `json:"by_language"`
}

// RetrievedResult is a scored search hit, produced per query and never persisted.
type RetrievedResult struct {
	ID       string
	Content  string
	Score    float64
	Distance float64
	Metadata map[string]string
}

// Source is a truncated excerpt of a retrieved document, attached to responses.
type Source struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Excerpt  string  `json:"excerpt"`
}

// Timing holds per-stage durations for one pipeline call.
type Timing struct {
	Retrieval  time.Duration `json:"retrieval"`
	Generation time.Duration `json:"generation"`
	Total      time.Duration `json:"total"`
}

// PipelineResponse is the answer returned to a caller. Success=false still
// carries a non-empty, language-appropriate answer string.
type PipelineResponse struct {
	Answer   string   `json:"answer"`
	Language string   `json:"language"`
	Success  bool     `json:"success"`
	Sources  []Source `json:"sources,omitempty"`
	Timing   *Timing  `json:"timing,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TranscriptSegment is one timed span of a transcription.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the result of a speech-to-text call.
type Transcript struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Segments []TranscriptSegment `json:"segments"`
	Success  bool                `json:"success"`
	Error    string              `json:"error,omitempty"`
}
