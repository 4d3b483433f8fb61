package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reog-rag/internal/archive"
	"reog-rag/internal/chromemdb"
	"reog-rag/internal/composer"
	"reog-rag/internal/config"
	"reog-rag/internal/embedding"
	"reog-rag/internal/kb"
	"reog-rag/internal/llmservice"
	"reog-rag/internal/normalizer"
	"reog-rag/internal/pipeline"
	"reog-rag/internal/retriever"
	"reog-rag/internal/stt"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	prepare := flag.Bool("prepare", false, "Build the knowledge base from raw source files")
	dryRun := flag.Bool("dry-run", false, "With -prepare: print chunks, do not save")
	query := flag.String("query", "", "Question to answer")
	audio := flag.String("audio", "", "Path to an audio file to transcribe and answer")
	lang := flag.String("lang", "", "Pin the answer language (id or en), empty for auto-detect")
	forceReload := flag.Bool("force-reload", false, "Delete and rebuild the vector collection before answering")
	stats := flag.Bool("stats", false, "Print knowledge-base statistics")
	showTiming := flag.Bool("timing", false, "Include per-stage timings in the response")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	cfg := loadConfig(*configPath)
	ctx := context.Background()

	switch {
	case *prepare:
		prepareKnowledgeBase(ctx, cfg, *dryRun)
	case *query != "":
		answerQuery(ctx, cfg, *query, *lang, *forceReload, *showTiming)
	case *audio != "":
		answerAudio(ctx, cfg, *audio, *lang, *forceReload, *showTiming)
	case *stats:
		showStats(ctx, cfg, *forceReload)
	default:
		log.Fatal().Msg("Provide one of -prepare, -query, -audio or -stats")
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Config file not found, using defaults")
			return config.Default()
		}
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func prepareKnowledgeBase(ctx context.Context, cfg *config.Config, dryRun bool) {
	p := kb.NewPreprocessor(
		cfg.KnowledgeBase.RawDir,
		cfg.KnowledgeBase.File,
		cfg.RAG.ChunkSize,
		cfg.RAG.ChunkOverlap,
		cfg.RAG.MinChunkSize,
	)

	if err := p.ProcessDirectory(); err != nil {
		log.Fatal().Err(err).Msg("Error processing raw data")
	}

	if dryRun {
		prettyPrint(p.Documents())
		return
	}

	if err := p.Save(); err != nil {
		log.Fatal().Err(err).Msg("Error saving knowledge base")
	}
	p.Validate()

	if cfg.Archive.DSN != "" {
		mirrorToArchive(ctx, cfg, p)
	}
}

func mirrorToArchive(ctx context.Context, cfg *config.Config, p *kb.Preprocessor) {
	db := archive.Connect(&cfg.Archive)
	defer db.Close()

	if err := archive.Reset(ctx, db); err != nil {
		log.Error().Err(err).Msg("Error resetting archive table")
		return
	}
	if err := archive.StoreChunks(ctx, db, p.Documents()); err != nil {
		log.Error().Err(err).Msg("Error mirroring chunks to archive")
		return
	}

	counts, err := archive.CountByCategory(ctx, db)
	if err == nil {
		log.Info().Interface("by_category", counts).Msg("Archive mirror complete")
	}
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, forceReload bool) *pipeline.Orchestrator {
	store, err := chromemdb.NewStore(cfg.VectorDB.Path, cfg.VectorDB.Collection, cfg.VectorDB.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM, cfg.RAG.EmbedBatchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	ret := retriever.New(store, embedder, cfg.KnowledgeBase.File, cfg.RAG.ScoreThreshold, cfg.RAG.EmbedBatchSize)
	if err := ret.Load(ctx, forceReload); err != nil {
		log.Fatal().Err(err).Msg("Error loading knowledge base")
	}

	gen, err := llmservice.NewClient(&cfg.GenLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	comp := composer.New(gen, cfg.GenLLM.Temperature)
	return pipeline.New(ret, comp, cfg.RAG.TopK)
}

func answerQuery(ctx context.Context, cfg *config.Config, query, lang string, forceReload, showTiming bool) {
	orch := buildOrchestrator(ctx, cfg, forceReload)

	response := orch.Answer(ctx, query, pipeline.Options{
		Language:      lang,
		ReturnSources: true,
		ReturnTiming:  showTiming,
	})
	printResponse(query, response)
}

func answerAudio(ctx context.Context, cfg *config.Config, audioPath, lang string, forceReload, showTiming bool) {
	if cfg.STT.BaseURL == "" {
		log.Fatal().Msg("stt.base_url is not configured")
	}

	orch := buildOrchestrator(ctx, cfg, forceReload).
		WithTranscriber(stt.NewClient(&cfg.STT, normalizer.NewWithCutoff(cfg.RAG.FuzzyCutoff)))

	response := orch.AnswerAudio(ctx, audioPath, pipeline.Options{
		Language:      lang,
		ReturnSources: true,
		ReturnTiming:  showTiming,
	})
	printResponse(audioPath, response)
}

func showStats(ctx context.Context, cfg *config.Config, forceReload bool) {
	store, err := chromemdb.NewStore(cfg.VectorDB.Path, cfg.VectorDB.Collection, cfg.VectorDB.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM, cfg.RAG.EmbedBatchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	ret := retriever.New(store, embedder, cfg.KnowledgeBase.File, cfg.RAG.ScoreThreshold, cfg.RAG.EmbedBatchSize)
	if err := ret.Load(ctx, forceReload); err != nil {
		log.Fatal().Err(err).Msg("Error loading knowledge base")
	}

	prettyPrint(ret.Stats())
}

func printResponse(query string, response interface{}) {
	log.Info().Str("input", query).Msg("Pipeline response")
	prettyPrint(response)
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Msg("Error pretty printing")
		return
	}
	fmt.Println(string(b))
}
