// Package archive mirrors prepared chunk records into Postgres for
// reporting and ad-hoc inspection. The vector search itself stays in the
// embedded chromem store; this table is a relational side copy.
package archive

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"reog-rag/internal/config"
	"reog-rag/internal/models"
)

type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID          string `bun:"id,pk"`
	Category    string `bun:"category,notnull"`
	Title       string `bun:"title,notnull"`
	Language    string `bun:"language,notnull"`
	Content     string `bun:"content,notnull"`
	Keywords    string `bun:"keywords"`
	SourceFile  string `bun:"source_file"`
	ChunkIndex  int    `bun:"chunk_index"`
	TotalChunks int    `bun:"total_chunks"`
	WordCount   int    `bun:"word_count"`
	CharCount   int    `bun:"char_count"`
}

// Connect opens the archive database from config.
func Connect(cfg *config.ArchiveConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Init creates the chunks table when missing.
func Init(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Reset drops and recreates the chunks table for a full rebuild.
func Reset(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewDropTable().Model((*ChunkRecord)(nil)).IfExists().Exec(ctx); err != nil {
		return err
	}
	return Init(ctx, db)
}

// StoreChunks batch-inserts prepared chunk records.
func StoreChunks(ctx context.Context, db *bun.DB, docs []models.DocumentChunk) error {
	if len(docs) == 0 {
		return nil
	}
	records := make([]ChunkRecord, len(docs))
	for i, d := range docs {
		records[i] = ChunkRecord{
			ID:          d.ID,
			Category:    d.Category,
			Title:       d.Title,
			Language:    d.Language,
			Content:     d.Content,
			Keywords:    strings.Join(d.Keywords, ","),
			SourceFile:  d.Metadata.SourceFile,
			ChunkIndex:  d.Metadata.ChunkIndex,
			TotalChunks: d.Metadata.TotalChunks,
			WordCount:   d.Metadata.WordCount,
			CharCount:   d.Metadata.CharCount,
		}
	}
	_, err := db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// CountByCategory reports how many chunks each category holds.
func CountByCategory(ctx context.Context, db *bun.DB) (map[string]int, error) {
	var rows []struct {
		Category string `bun:"category"`
		Count    int    `bun:"count"`
	}
	err := db.NewSelect().
		Model((*ChunkRecord)(nil)).
		Column("category").
		ColumnExpr("count(*) AS count").
		Group("category").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}
