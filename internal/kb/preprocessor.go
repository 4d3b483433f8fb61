package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"reog-rag/internal/models"
	"reog-rag/internal/parser"
)

const keywordTopN = 5

var numberPrefixRe = regexp.MustCompile(`^\d+_`)

// Preprocessor turns raw per-category source files into the persisted
// knowledge base.
type Preprocessor struct {
	rawDir     string
	outputFile string

	maxChunkSize int
	overlap      int
	minChunkSize int

	documents []models.DocumentChunk
}

func NewPreprocessor(rawDir, outputFile string, maxChunkSize, overlap, minChunkSize int) *Preprocessor {
	return &Preprocessor{
		rawDir:       rawDir,
		outputFile:   outputFile,
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
		minChunkSize: minChunkSize,
	}
}

// Documents returns the records produced so far.
func (p *Preprocessor) Documents() []models.DocumentChunk {
	return p.documents
}

// ProcessDirectory walks rawDir/<category>/{id,en}/ and processes every
// supported source file. Unreadable files are logged and skipped; the batch
// never aborts on a single bad file.
func (p *Preprocessor) ProcessDirectory() error {
	if _, err := os.Stat(p.rawDir); err != nil {
		return fmt.Errorf("raw data directory not found: %s", p.rawDir)
	}

	for _, category := range models.CategoryOrder {
		categoryPath := filepath.Join(p.rawDir, category)
		if _, err := os.Stat(categoryPath); err != nil {
			log.Warn().Str("category", category).Msg("Category directory not found")
			continue
		}

		log.Info().Str("category", models.Categories[category]).Msg("Processing category")

		for _, lang := range []string{models.LanguageIndonesian, models.LanguageEnglish} {
			langDir := filepath.Join(categoryPath, lang)
			files, err := listSourceFiles(langDir)
			if err != nil {
				log.Warn().Str("dir", langDir).Msg("Language directory not found")
				continue
			}
			for _, file := range files {
				p.processFile(file, category, lang)
			}
		}
	}
	return nil
}

func listSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.Supported(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (p *Preprocessor) processFile(filePath, category, language string) {
	raw, err := parser.ExtractText(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error reading source file")
		return
	}
	if strings.TrimSpace(raw) == "" {
		log.Warn().Str("file", filePath).Msg("Empty file")
		return
	}

	content := CleanText(raw)
	chunks := Chunk(content, p.maxChunkSize, p.overlap, p.minChunkSize)

	title := titleFromFilename(filePath)
	fileName := filepath.Base(filePath)

	for i, chunk := range chunks {
		if len(chunk) < p.minChunkSize {
			// merge rule should prevent this; skip rather than persist a runt
			log.Warn().Str("file", fileName).Int("chunk", i).Int("len", len(chunk)).
				Msg("Generated chunk is too short, skipping")
			continue
		}

		chunkTitle := title
		if len(chunks) > 1 {
			chunkTitle = fmt.Sprintf("%s - Part %d", title, i+1)
		}

		p.documents = append(p.documents, models.DocumentChunk{
			ID:       fmt.Sprintf("doc_%04d", len(p.documents)+1),
			Category: category,
			Title:    chunkTitle,
			Language: language,
			Content:  chunk,
			Keywords: ExtractKeywords(chunk, keywordTopN),
			Metadata: models.ChunkMetadata{
				SourceFile:  fileName,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				WordCount:   len(strings.Fields(chunk)),
				CharCount:   len(chunk),
			},
		})
	}

	log.Info().Str("file", fileName).Int("chunks", len(chunks)).Msg("Processed source file")
}

// titleFromFilename derives a display title from the file stem:
// "01_asal_usul_reog.txt" -> "Asal Usul Reog".
func titleFromFilename(filePath string) string {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	stem = numberPrefixRe.ReplaceAllString(stem, "")
	words := strings.Split(stem, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Save writes the knowledge base JSON with aggregate statistics.
func (p *Preprocessor) Save() error {
	if len(p.documents) == 0 {
		return fmt.Errorf("no documents to save")
	}

	out := models.KnowledgeBase{
		Metadata:  buildStats(p.documents),
		Documents: p.documents,
	}

	if err := os.MkdirAll(filepath.Dir(p.outputFile), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.outputFile, data, 0o644); err != nil {
		return err
	}

	log.Info().
		Int("documents", len(p.documents)).
		Str("file", p.outputFile).
		Msg("Knowledge base saved")
	return nil
}

func buildStats(docs []models.DocumentChunk) models.KnowledgeBaseStats {
	byCategory := make(map[string]int)
	byLanguage := make(map[string]int)
	for _, d := range docs {
		byCategory[d.Category]++
		byLanguage[d.Language]++
	}
	return models.KnowledgeBaseStats{
		TotalDocuments: len(docs),
		Categories:     sortedKeys(byCategory),
		Languages:      sortedKeys(byLanguage),
		Statistics: models.CountStatistics{
			ByCategory: byCategory,
			ByLanguage: byLanguage,
		},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports coverage and quality issues without failing the build.
func (p *Preprocessor) Validate() []string {
	var issues []string

	if len(p.documents) < 30 {
		issues = append(issues, fmt.Sprintf("only %d documents (recommended: 50+)", len(p.documents)))
	}

	idDocs, enDocs := 0, 0
	for _, d := range p.documents {
		switch d.Language {
		case models.LanguageIndonesian:
			idDocs++
		case models.LanguageEnglish:
			enDocs++
		}
	}
	if idDocs < 20 {
		issues = append(issues, fmt.Sprintf("only %d Indonesian documents", idDocs))
	}
	if enDocs < 20 {
		issues = append(issues, fmt.Sprintf("only %d English documents", enDocs))
	}

	short := 0
	for _, d := range p.documents {
		if len(d.Content) < p.minChunkSize {
			short++
			log.Warn().Str("id", d.ID).Int("len", len(d.Content)).
				Str("source", d.Metadata.SourceFile).Msg("Short document")
		}
	}
	if short > 0 {
		issues = append(issues, fmt.Sprintf("%d documents shorter than %d chars", short, p.minChunkSize))
	}

	for _, issue := range issues {
		log.Warn().Msg(issue)
	}
	if len(issues) == 0 {
		log.Info().Msg("Knowledge base looks good")
	}
	return issues
}

// LoadKnowledgeBase reads a previously prepared knowledge base file.
func LoadKnowledgeBase(path string) (*models.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kb models.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("invalid knowledge base file %s: %w", path, err)
	}
	return &kb, nil
}
